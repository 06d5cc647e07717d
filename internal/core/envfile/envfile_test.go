package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/compose-spec/compose-go/v2/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEnv = `# GitHub credentials
GITHUB_TOKENS=your_github_token_here

# Balancer
SILICONFLOW_BALANCER_URL="http://localhost:3000"
SILICONFLOW_BALANCER_AUTH='secret'
not a valid line
SILICONFLOW_BALANCER_SYNC_ENABLED=false
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_Get(t *testing.T) {
	f := Parse([]byte(sampleEnv))

	v, ok := f.Get(KeyGitHubTokens)
	assert.True(t, ok)
	assert.Equal(t, "your_github_token_here", v)
}

func TestParse_StripsQuotes(t *testing.T) {
	f := Parse([]byte(sampleEnv))

	assert.Equal(t, "http://localhost:3000", f.Value(KeyBalancerURL))
	assert.Equal(t, "secret", f.Value(KeyBalancerAuth))
}

func TestParse_MalformedLineTreatedAsAbsent(t *testing.T) {
	f := Parse([]byte(sampleEnv))

	_, ok := f.Get("not a valid line")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{
		KeyGitHubTokens:    "your_github_token_here",
		KeyBalancerURL:     "http://localhost:3000",
		KeyBalancerAuth:    "secret",
		KeyBalancerEnabled: "false",
	}, f.Map())
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	f := Parse([]byte("A=1\nA=2\n"))
	assert.Equal(t, "2", f.Value("A"))
	assert.Equal(t, map[string]string{"A": "2"}, f.Map())
}

func TestParse_MatchesComposeDotenv(t *testing.T) {
	tests := []struct {
		name string
		line string
		key  string
		want string
	}{
		{"inline comment", "GITHUB_TOKENS=your_github_token_here # replace with your token", KeyGitHubTokens, "your_github_token_here"},
		{"hash without space", "A=abc#def", "A", "abc#def"},
		{"quoted hash", `A="abc #def" # comment`, "A", "abc #def"},
		{"single quoted", `A='x $Y'`, "A", "x $Y"},
		{"double quoted escape", `A="line\nbreak"`, "A", "line\nbreak"},
		{"trailing spaces", "A=value   ", "A", "value"},
		{"empty", "A=", "A", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := []byte(tt.line + "\n")
			composeSees, err := dotenv.UnmarshalBytesWithLookup(content, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.want, Parse(content).Value(tt.key))
			assert.Equal(t, composeSees[tt.key], Parse(content).Value(tt.key))
		})
	}
}

func TestParse_ExpandsEarlierValues(t *testing.T) {
	f := Parse([]byte("HOST=gpt-load\nGPT_LOAD_URL=http://${HOST}:3001\n"))
	assert.Equal(t, "http://gpt-load:3001", f.Value("GPT_LOAD_URL"))
}

func TestParse_UnterminatedQuoteFallsBackToRawValue(t *testing.T) {
	f := Parse([]byte(`A="abc` + "\n"))
	assert.Equal(t, `"abc`, f.Value("A"))
}

func TestParse_ExportPrefix(t *testing.T) {
	f := Parse([]byte("export A=1\n"))
	assert.Equal(t, "1", f.Value("A"))
}

func TestParse_Empty(t *testing.T) {
	f := Parse(nil)
	_, ok := f.Get("A")
	assert.False(t, ok)
	assert.Empty(t, f.Bytes())
}

func TestParse_CRLF(t *testing.T) {
	content := "A=1\r\nB=2\r\n"
	f := Parse([]byte(content))
	assert.Equal(t, "1", f.Value("A"))
	assert.Equal(t, "2", f.Value("B"))
	assert.Equal(t, content, string(f.Bytes()))
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"abc"`, "abc"},
		{`'abc'`, "abc"},
		{`  abc  `, "abc"},
		{`"abc'`, `"abc'`},
		{`"`, `"`},
		{`""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unquote(tt.input))
		})
	}
}

// =============================================================================
// Round Trip Tests
// =============================================================================

func TestBytes_UnchangedRoundTrip(t *testing.T) {
	f := Parse([]byte(sampleEnv))
	assert.Equal(t, sampleEnv, string(f.Bytes()))
	assert.False(t, f.Dirty())
}

func TestBytes_NoTrailingNewlinePreserved(t *testing.T) {
	f := Parse([]byte("A=1\nB=2"))
	assert.Equal(t, "A=1\nB=2", string(f.Bytes()))
}

// =============================================================================
// Set Tests
// =============================================================================

func TestSet_ReplacesInPlace(t *testing.T) {
	f := Parse([]byte(sampleEnv))
	f.Set(KeyGitHubTokens, "ghp_abc123")

	expected := `# GitHub credentials
GITHUB_TOKENS=ghp_abc123

# Balancer
SILICONFLOW_BALANCER_URL="http://localhost:3000"
SILICONFLOW_BALANCER_AUTH='secret'
not a valid line
SILICONFLOW_BALANCER_SYNC_ENABLED=false
`
	assert.Equal(t, expected, string(f.Bytes()))
	assert.True(t, f.Dirty())
}

func TestSet_AppendsMissingKey(t *testing.T) {
	f := Parse([]byte("A=1"))
	f.Set("B", "2")
	assert.Equal(t, "A=1\nB=2\n", string(f.Bytes()))
}

func TestSet_SameValueNotDirty(t *testing.T) {
	f := Parse([]byte("A=1\n"))
	f.Set("A", "1")
	assert.False(t, f.Dirty())
}

func TestSet_ReplacesEffectiveAssignment(t *testing.T) {
	f := Parse([]byte("A=1\nA=2\n"))
	f.Set("A", "3")
	assert.Equal(t, "A=1\nA=3\n", string(f.Bytes()))
	assert.Equal(t, "3", f.Value("A"))
}

func TestSet_KeepsExportPrefix(t *testing.T) {
	f := Parse([]byte("export A=1\n  B=2\n"))
	f.Set("A", "3")
	f.Set("B", "4")
	assert.Equal(t, "export A=3\n  B=4\n", string(f.Bytes()))
}

func TestSet_KeepsCRLFLineEndings(t *testing.T) {
	f := Parse([]byte("# tokens\r\nA=1\r\nB=2\r\n"))
	f.Set("A", "3")
	f.Set("C", "4")
	assert.Equal(t, "# tokens\r\nA=3\r\nB=2\r\nC=4\r\n", string(f.Bytes()))
}

func TestSet_QuotesValuesComposeWouldMisread(t *testing.T) {
	values := []string{
		"sk-abc #1",
		"with space",
		"it's",
		`back\slash`,
		"dollar$HOME",
		`quote"d`,
		"multi\nline",
		"plain-value",
		"",
	}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			f := Parse([]byte("# header\n"))
			f.Set(KeyBalancerAuth, v)

			composeSees, err := dotenv.UnmarshalBytesWithLookup(f.Bytes(), nil)
			require.NoError(t, err)
			assert.Equal(t, v, composeSees[KeyBalancerAuth])
			assert.Equal(t, v, Parse(f.Bytes()).Value(KeyBalancerAuth))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "ghp_abc123", Quote("ghp_abc123"))
	assert.Equal(t, "'sk-abc #1'", Quote("sk-abc #1"))
	assert.Equal(t, `"it's"`, Quote("it's"))
}

// =============================================================================
// File I/O Tests
// =============================================================================

func TestWriteFile_PreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("A=1\n"), 0o640))

	f, err := Load(path)
	require.NoError(t, err)
	f.Set("A", "2")
	require.NoError(t, f.WriteFile(path))
	assert.False(t, f.Dirty())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A=2\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
