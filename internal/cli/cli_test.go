package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/passgen/composer"
	"github.com/sundayezeilo/passgen/internal/config"
)

func runCLI(t *testing.T, pw config.PasswordConfig, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := NewRootCommand(Options{
		Generator: composer.New(composer.NewSeededSource(2024)),
		Password:  pw,
	})
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)

	err = root.Execute()
	return out.String(), errOut.String(), err
}

func defaultConfig() config.PasswordConfig {
	return config.PasswordConfig{DefaultLength: 12, MaxLength: 256}
}

// parseText extracts the password and label counts from one text block.
func parseText(t *testing.T, block string) (string, map[string]int) {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(block), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	require.Equal(t, "Generated Password:", lines[0])

	counts := map[string]int{}
	for _, line := range lines[3:] {
		label, n, ok := strings.Cut(line, " - ")
		require.True(t, ok, "malformed count line %q", line)
		v, err := strconv.Atoi(n)
		require.NoError(t, err)
		counts[label] = v
	}
	return lines[1], counts
}

func TestRoot_DefaultsToAllClasses(t *testing.T) {
	stdout, _, err := runCLI(t, defaultConfig())
	require.NoError(t, err)

	password, counts := parseText(t, stdout)
	assert.Len(t, password, 12)
	assert.Len(t, counts, 4)

	sum := 0
	for _, label := range []string{"Digits", "Uppercase Characters", "Lowercase Characters", "Special Symbols"} {
		assert.GreaterOrEqual(t, counts[label], 1, "label %s", label)
		sum += counts[label]
	}
	assert.Equal(t, 12, sum)
}

func TestRoot_SelectedClasses(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantLength int
		wantLabels []string
	}{
		{"digits only", []string{"-l", "6", "-d"}, 6, []string{"Digits"}},
		{"upper and symbols", []string{"--length", "10", "--upper", "--symbols"}, 10, []string{"Uppercase Characters", "Special Symbols"}},
		{"lower via short flag", []string{"-l", "3", "-w"}, 3, []string{"Lowercase Characters"}},
		{"length equals class count", []string{"-l", "4", "-d", "-u", "-w", "-s"}, 4,
			[]string{"Digits", "Uppercase Characters", "Lowercase Characters", "Special Symbols"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, defaultConfig(), tt.args...)
			require.NoError(t, err)

			password, counts := parseText(t, stdout)
			assert.Len(t, password, tt.wantLength)
			assert.Len(t, counts, len(tt.wantLabels))
			for _, label := range tt.wantLabels {
				assert.GreaterOrEqual(t, counts[label], 1, "label %s", label)
			}
		})
	}
}

func TestRoot_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero length", []string{"-l", "0"}, "Please enter a valid positive integer for password length"},
		{"negative length", []string{"-l", "-4", "-d"}, "Please enter a valid positive integer for password length"},
		{"too short", []string{"-l", "2", "-d", "-u", "-s"}, "Length is too short to include at least one of each selected type"},
		{"above max", []string{"-l", "300"}, "exceeds maximum 256"},
		{"bad count", []string{"-c", "0"}, "count must be between 1 and 1000"},
		{"non-numeric length", []string{"-l", "abc"}, "invalid argument"},
		{"positional argument", []string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, defaultConfig(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, stdout)
		})
	}
}

func TestRoot_CountAndJSON(t *testing.T) {
	stdout, _, err := runCLI(t, defaultConfig(), "-l", "20", "-d", "-s", "-c", "3", "--json")
	require.NoError(t, err)

	sc := bufio.NewScanner(strings.NewReader(stdout))
	seen := map[string]bool{}
	n := 0
	for sc.Scan() {
		var p passwordJSON
		require.NoError(t, json.Unmarshal(sc.Bytes(), &p))

		assert.Len(t, p.Password, 20)
		assert.Equal(t, 20, p.Length)
		assert.Equal(t, []string{"digit", "symbol"}, p.Classes)
		assert.Equal(t, 20, p.Counts["digit"]+p.Counts["symbol"])
		assert.GreaterOrEqual(t, p.Counts["digit"], 1)
		assert.GreaterOrEqual(t, p.Counts["symbol"], 1)

		seen[p.Password] = true
		n++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 3, n)
	assert.Len(t, seen, 3, "passwords in a batch should differ")
}

func TestRoot_CountText(t *testing.T) {
	stdout, _, err := runCLI(t, defaultConfig(), "-c", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, "Generated Password:"))
}

func TestRoot_DefaultLengthFromConfig(t *testing.T) {
	stdout, _, err := runCLI(t, config.PasswordConfig{DefaultLength: 30, MaxLength: 64}, "--json")
	require.NoError(t, err)

	var p passwordJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &p))
	assert.Equal(t, 30, p.Length)
}

func TestRoot_Copy(t *testing.T) {
	old := clipboardWriteAll
	defer func() { clipboardWriteAll = old }()

	t.Run("copies last password", func(t *testing.T) {
		var copied []string
		clipboardWriteAll = func(s string) error {
			copied = append(copied, s)
			return nil
		}

		stdout, stderr, err := runCLI(t, defaultConfig(), "-c", "2", "--json", "--copy")
		require.NoError(t, err)
		require.Len(t, copied, 1)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 2)
		var last passwordJSON
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
		assert.Equal(t, last.Password, copied[0])
		assert.Empty(t, stderr)
	})

	t.Run("announces copy in text mode", func(t *testing.T) {
		clipboardWriteAll = func(string) error { return nil }

		_, stderr, err := runCLI(t, defaultConfig(), "--copy")
		require.NoError(t, err)
		assert.Contains(t, stderr, "Password copied to clipboard!")
	})

	t.Run("clipboard failure is not fatal", func(t *testing.T) {
		clipboardWriteAll = func(string) error { return errors.New("no clipboard utilities available") }

		stdout, _, err := runCLI(t, defaultConfig(), "--copy")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Generated Password:")
	})
}

func TestClassesCommand(t *testing.T) {
	stdout, _, err := runCLI(t, defaultConfig(), "classes")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))

	for i, c := range composer.AllClasses() {
		assert.True(t, strings.HasPrefix(lines[i+1], c.String()), "line %q", lines[i+1])
		assert.True(t, strings.HasSuffix(lines[i+1], c.Alphabet()), "line %q", lines[i+1])
	}
}

func TestDescribeInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  composer.Request
		want string
	}{
		{"no classes", composer.Request{Length: 8}, "Please select at least one option"},
		{"non-positive length", composer.Request{Length: 0, Classes: composer.AllClasses()}, "Please enter a valid positive integer for password length"},
		{"too short", composer.Request{Length: 3, Classes: composer.AllClasses()}, "Length is too short to include at least one of each selected type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := composer.Validate(tt.req)
			require.ErrorIs(t, err, composer.ErrInvalidRequest)
			assert.Equal(t, tt.want, describeInvalid(tt.req, err))
		})
	}
}
