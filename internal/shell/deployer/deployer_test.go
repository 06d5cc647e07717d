package deployer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
	"github.com/artpar/hajimi-deploy/internal/shell/docker"
	"github.com/artpar/hajimi-deploy/internal/shell/prompt"
	"github.com/artpar/hajimi-deploy/internal/shell/runtime"
	"github.com/artpar/hajimi-deploy/internal/shell/style"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixtures
// =============================================================================

const envExample = `# GitHub access
GITHUB_TOKENS=your_github_token_here

# SiliconFlow Balancer sync
SILICONFLOW_BALANCER_URL=http://localhost:3000
SILICONFLOW_BALANCER_AUTH=
SILICONFLOW_BALANCER_SYNC_ENABLED=false

# GPT Load sync
GPT_LOAD_URL=
GPT_LOAD_AUTH=
GPT_LOAD_GROUP_NAME=
GPT_LOAD_SYNC_ENABLED=false
`

const queriesExample = `# One GitHub code search query per line
AIzaSy in:file

AIzaSy filename:.env
`

const composeManifest = `services:
  hajimi-king:
    image: hajimi-king:1.0.0
    container_name: hajimi-king
    restart: unless-stopped
    ports:
      - "8080:8080"
    volumes:
      - ./data:/app/data
      - ./logs:/app/logs
`

var testImage = deploy.ImageRef{Name: "hajimi-king", Tag: "1.0.0"}

// =============================================================================
// Fake Runtime
// =============================================================================

// fakeRuntime records calls and simulates a compose stack: up makes it
// running, down makes it absent.
type fakeRuntime struct {
	locateErr    error
	daemon       *runtime.Result
	daemonErr    error
	state        deploy.ServiceState
	stateErr     error
	buildResult  *runtime.Result
	upResult     *runtime.Result
	downResult   *runtime.Result
	statusResult *runtime.Result

	calls    []string
	builds   []runtime.BuildRequest
	projects []runtime.ComposeProject
	images   []docker.ImageInfo
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{state: deploy.ServiceAbsent}
}

func ok() *runtime.Result { return &runtime.Result{ExitCode: 0} }

func orOK(r *runtime.Result) *runtime.Result {
	if r == nil {
		return ok()
	}
	return r
}

func (f *fakeRuntime) LocateTools(ctx context.Context) error {
	f.calls = append(f.calls, "locate")
	return f.locateErr
}

func (f *fakeRuntime) DaemonReachable(ctx context.Context) (*runtime.Result, error) {
	f.calls = append(f.calls, "daemon")
	return orOK(f.daemon), f.daemonErr
}

func (f *fakeRuntime) BuildImage(ctx context.Context, req runtime.BuildRequest) (*runtime.Result, error) {
	f.calls = append(f.calls, "build")
	f.builds = append(f.builds, req)
	res := orOK(f.buildResult)
	if res.Succeeded() {
		f.images = []docker.ImageInfo{{ID: "0123456789ab", Tags: []string{req.Tag}}}
	}
	return res, nil
}

func (f *fakeRuntime) ListImages(ctx context.Context, reference string) ([]docker.ImageInfo, error) {
	f.calls = append(f.calls, "images")
	return f.images, nil
}

func (f *fakeRuntime) ComposeUp(ctx context.Context, p runtime.ComposeProject) (*runtime.Result, error) {
	f.calls = append(f.calls, "up")
	f.projects = append(f.projects, p)
	res := orOK(f.upResult)
	if res.Succeeded() {
		f.state = deploy.ServiceRunning
	}
	return res, nil
}

func (f *fakeRuntime) ComposeDown(ctx context.Context, p runtime.ComposeProject) (*runtime.Result, error) {
	f.calls = append(f.calls, "down")
	f.projects = append(f.projects, p)
	res := orOK(f.downResult)
	if res.Succeeded() {
		f.state = deploy.ServiceAbsent
	}
	return res, nil
}

func (f *fakeRuntime) ComposeStatus(ctx context.Context, p runtime.ComposeProject) (*runtime.Result, error) {
	f.calls = append(f.calls, "status")
	if f.statusResult != nil {
		return f.statusResult, nil
	}
	return &runtime.Result{Output: "NAME          STATUS\nhajimi-king   Up 5 seconds\n"}, nil
}

func (f *fakeRuntime) ComposeState(ctx context.Context, p runtime.ComposeProject) (deploy.ServiceState, error) {
	f.calls = append(f.calls, "state")
	return f.state, f.stateErr
}

func (f *fakeRuntime) indexOf(call string) int {
	for i, c := range f.calls {
		if c == call {
			return i
		}
	}
	return -1
}

// =============================================================================
// Test Helpers
// =============================================================================

// newSourceTree creates an install directory holding a complete source tree
// and returns the install directory.
func newSourceTree(t *testing.T) string {
	t.Helper()
	install := t.TempDir()
	src := filepath.Join(install, deploy.SourceDirName)

	files := map[string]string{
		deploy.ArtifactDockerfile:   "FROM python:3.11-slim\n",
		deploy.ArtifactEntryPoint:   "print('scan')\n",
		deploy.ArtifactEnvExample:   envExample,
		deploy.ArtifactQueryExample: queriesExample,
		deploy.ArtifactCompose:      composeManifest,
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return install
}

type harness struct {
	d      *Deployer
	rt     *fakeRuntime
	p      *prompt.Scripted
	out    *bytes.Buffer
	dc     deploy.Context
	sleeps []time.Duration
}

func newHarness(t *testing.T, install, deployDir string, cfg Config, answers ...string) *harness {
	t.Helper()
	h := &harness{
		rt:  newFakeRuntime(),
		p:   prompt.NewScripted(answers...),
		out: &bytes.Buffer{},
		dc:  deploy.Resolve(install, deployDir, testImage),
	}
	h.d = New(Options{
		Context:  h.dc,
		Runtime:  h.rt,
		Prompter: h.p,
		Console:  style.NewConsole(h.out),
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	})
	return h
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// snapshot maps every file under dir to its content; directories map to "/".
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		if info.IsDir() {
			files[rel] = "/"
			return nil
		}
		data, err := os.ReadFile(path)
		files[rel] = string(data)
		return err
	})
	require.NoError(t, err)
	return files
}

func exitCode(err error) int {
	return deploy.ExitCodeOf(err)
}

func kindOf(err error) deploy.Kind {
	var dErr *deploy.Error
	if errors.As(err, &dErr) {
		return dErr.Kind
	}
	return ""
}
