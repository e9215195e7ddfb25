package gitctx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 535000000, time.FixedZone("CET", 3600))

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"default", "vault publish: {timestamp}", "vault publish: 2025-03-14T14:09:26.535Z"},
		{"no token", "static message", "static message"},
		{"first token only", "{timestamp} / {timestamp}", "2025-03-14T14:09:26.535Z / {timestamp}"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderMessage(tt.template, fixedNow))
		})
	}
}

func TestParsePorcelain(t *testing.T) {
	out := " M content/a.md\n?? assets/new image.png\nR  old.md -> content/renamed.md\nA  \"quoted name.md\"\n\n"
	assert.Equal(t, []string{"assets/new image.png", "content/a.md", "content/renamed.md", "quoted name.md"}, parsePorcelain(out))
	assert.Empty(t, parsePorcelain(""))
}

func TestParsePorcelainQuotedPaths(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"utf-8 octal escapes", `?? "content/caf\303\251.md"`, "content/café.md"},
		{"escaped quote", `?? "content/say \"hi\".md"`, `content/say "hi".md`},
		{"tab", `?? "content/a\tb.md"`, "content/a\tb.md"},
		{"quoted rename", `R  "old caf\303\251.md" -> "new caf\303\251.md"`, "new café.md"},
		{"plain", "?? content/plain.md", "content/plain.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, parsePorcelain(tt.line+"\n"))
		})
	}
}

func TestInspectNonRepository(t *testing.T) {
	_, err := Inspect(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)
}

func TestInspectReportsPendingChanges(t *testing.T) {
	dir, _ := initRepo(t)
	writeFile(t, dir, "content/a.md", "# A")

	cc, err := Inspect(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cc.Root)
	assert.Empty(t, cc.GitSHA)
	assert.Equal(t, []string{"content/a.md"}, cc.ModifiedFiles)
	assert.False(t, cc.Clean())
}

func TestCommitterGoGit(t *testing.T) {
	dir, repo := initRepo(t)
	backend, err := NewGoGitBackend(dir)
	require.NoError(t, err)
	c := NewCommitter(backend, "vault publish: {timestamp}",
		WithClock(func() time.Time { return fixedNow }),
		WithAuthor(Signature{Name: "Test User", Email: "test@example.com"}))

	writeFile(t, dir, "content/a.md", "# A")
	writeFile(t, dir, "assets/img.png", "png")

	res := c.Commit(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, Committed, res.Outcome)
	assert.Len(t, res.Hash, 40)
	assert.Equal(t, []string{"assets/img.png", "content/a.md"}, res.Files)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "vault publish: 2025-03-14T14:09:26.535Z", commit.Message)
	assert.Equal(t, "Test User", commit.Author.Name)
	assert.Equal(t, "test@example.com", commit.Author.Email)

	again := c.Commit(context.Background())
	assert.Equal(t, NoChanges, again.Outcome)
	assert.NoError(t, again.Err)

	cc, err := Inspect(dir)
	require.NoError(t, err)
	assert.True(t, cc.Clean())
	assert.Equal(t, res.Hash, cc.GitSHA)
	assert.NotEmpty(t, cc.Branch)
}

func TestCommitterStagesDeletions(t *testing.T) {
	dir, repo := initRepo(t)
	backend, err := NewGoGitBackend(dir)
	require.NoError(t, err)
	c := NewCommitter(backend, "publish")

	writeFile(t, dir, "content/a.md", "# A")
	writeFile(t, dir, "content/b.md", "# B")
	require.Equal(t, Committed, c.Commit(context.Background()).Outcome)

	require.NoError(t, os.Remove(filepath.Join(dir, "content", "b.md")))
	res := c.Commit(context.Background())
	require.Equal(t, Committed, res.Outcome)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	_, err = commit.File("content/b.md")
	assert.Error(t, err)
	_, err = commit.File("content/a.md")
	assert.NoError(t, err)
}

func TestOpenBackendNonRepository(t *testing.T) {
	_, err := OpenBackend(context.Background(), "gogit", t.TempDir())
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)

	_, err = OpenBackend(context.Background(), "svn", t.TempDir())
	assert.ErrorContains(t, err, "unknown git backend")
}

type fakeBackend struct {
	files     []string
	statusErr error
	stageErr  error
	commitErr error
	staged    bool
	message   string
}

func (f *fakeBackend) Status(context.Context) ([]string, error) { return f.files, f.statusErr }

func (f *fakeBackend) StageAll(context.Context) error {
	f.staged = true
	return f.stageErr
}

func (f *fakeBackend) Commit(_ context.Context, message string, _ Signature, _ time.Time) (string, error) {
	f.message = message
	if f.commitErr != nil {
		return "", f.commitErr
	}
	return "abc123", nil
}

func TestCommitterOutcomes(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		backend *fakeBackend
		outcome Outcome
		step    string
		staged  bool
	}{
		{"clean tree", &fakeBackend{}, NoChanges, "", false},
		{"committed", &fakeBackend{files: []string{"a.md"}}, Committed, "", true},
		{"raced to clean", &fakeBackend{files: []string{"a.md"}, commitErr: ErrNothingToCommit}, NoChanges, "", true},
		{"status fails", &fakeBackend{statusErr: boom}, Failed, "status", false},
		{"stage fails", &fakeBackend{files: []string{"a.md"}, stageErr: boom}, Failed, "add", true},
		{"commit fails", &fakeBackend{files: []string{"a.md"}, commitErr: boom}, Failed, "commit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewCommitter(tt.backend, "m").Commit(context.Background())
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.staged, tt.backend.staged)
			if tt.step == "" {
				assert.NoError(t, res.Err)
				return
			}
			var ce *CommitError
			require.ErrorAs(t, res.Err, &ce)
			assert.Equal(t, tt.step, ce.Step)
			assert.ErrorIs(t, res.Err, boom)
			assert.True(t, IsCommitError(res.Err))
		})
	}
}

func TestCommitterCLI(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available, skipping integration test")
	}
	dir, repo := initRepo(t)
	backend, err := NewCLIBackend(context.Background(), dir)
	require.NoError(t, err)
	c := NewCommitter(backend, "cli publish {timestamp}", WithClock(func() time.Time { return fixedNow }))

	writeFile(t, dir, "content/a.md", "# A")
	writeFile(t, dir, "content/café.md", "# Café")
	res := c.Commit(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, Committed, res.Outcome)
	assert.Equal(t, []string{"content/a.md", "content/café.md"}, res.Files)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash().String(), res.Hash)

	assert.Equal(t, NoChanges, c.Commit(context.Background()).Outcome)
}

func TestCLIBackendNonRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	_, err := NewCLIBackend(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)
}

func TestDeferredCommitter(t *testing.T) {
	res := NewDeferredCommitter("gogit", t.TempDir(), "m").Commit(context.Background())
	assert.Equal(t, Failed, res.Outcome)
	var ce *CommitError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, "open", ce.Step)
	assert.ErrorIs(t, res.Err, git.ErrRepositoryNotExists)

	dir, _ := initRepo(t)
	writeFile(t, dir, "content/a.md", "# A")
	c := NewDeferredCommitter("gogit", dir, "m")
	assert.Equal(t, Committed, c.Commit(context.Background()).Outcome)
	assert.Equal(t, NoChanges, c.Commit(context.Background()).Outcome)
}
