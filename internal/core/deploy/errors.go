package deploy

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess                 = 0
	ExitConfigError             = 1
	ExitMissingSourceArtifact   = 2
	ExitMissingRuntimeTool      = 3
	ExitDaemonUnreachable       = 4
	ExitFilesystemFailure       = 5
	ExitBuildFailure            = 6
	ExitStartFailure            = 7
	ExitConfigurationIncomplete = 8
	ExitTeardownFailure         = 9
)

// =============================================================================
// Error Kinds
// =============================================================================

// Kind classifies a fatal pipeline error.
type Kind string

const (
	KindMissingSourceArtifact   Kind = "missing_source_artifact"
	KindMissingRuntimeTool      Kind = "missing_runtime_tool"
	KindDaemonUnreachable       Kind = "daemon_unreachable"
	KindFilesystemWriteFailure  Kind = "filesystem_write_failure"
	KindBuildFailure            Kind = "build_failure"
	KindStartFailure            Kind = "start_failure"
	KindTeardownFailure         Kind = "teardown_failure"
	KindConfigurationIncomplete Kind = "configuration_incomplete"
)

// ExitCode returns the process exit status for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindMissingSourceArtifact:
		return ExitMissingSourceArtifact
	case KindMissingRuntimeTool:
		return ExitMissingRuntimeTool
	case KindDaemonUnreachable:
		return ExitDaemonUnreachable
	case KindFilesystemWriteFailure:
		return ExitFilesystemFailure
	case KindBuildFailure:
		return ExitBuildFailure
	case KindStartFailure:
		return ExitStartFailure
	case KindTeardownFailure:
		return ExitTeardownFailure
	case KindConfigurationIncomplete:
		return ExitConfigurationIncomplete
	default:
		return ExitConfigError
	}
}

// Sentinel errors, one per kind, so callers can match with errors.Is.
var (
	ErrMissingSourceArtifact   = errors.New("missing source artifact")
	ErrMissingRuntimeTool      = errors.New("missing runtime tool")
	ErrDaemonUnreachable       = errors.New("container daemon unreachable")
	ErrFilesystemWrite         = errors.New("filesystem write failed")
	ErrBuildFailed             = errors.New("image build failed")
	ErrStartFailed             = errors.New("service start failed")
	ErrTeardownFailed          = errors.New("service teardown failed")
	ErrConfigurationIncomplete = errors.New("configuration incomplete")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMissingSourceArtifact:
		return ErrMissingSourceArtifact
	case KindMissingRuntimeTool:
		return ErrMissingRuntimeTool
	case KindDaemonUnreachable:
		return ErrDaemonUnreachable
	case KindFilesystemWriteFailure:
		return ErrFilesystemWrite
	case KindBuildFailure:
		return ErrBuildFailed
	case KindStartFailure:
		return ErrStartFailed
	case KindTeardownFailure:
		return ErrTeardownFailed
	case KindConfigurationIncomplete:
		return ErrConfigurationIncomplete
	default:
		return nil
	}
}

// =============================================================================
// Error Type
// =============================================================================

// Error is a fatal pipeline error with enough context to tell the operator
// exactly what failed.
type Error struct {
	Kind    Kind
	Op      string   // Pipeline operation, e.g. "scaffold"
	Subject string   // Path or tool name the error is about
	Missing []string // Every missing item, for aggregated reports
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		b.WriteString(": ")
		b.WriteString(sentinel.Error())
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Missing, ", "))
	}
	if e.Subject != "" {
		fmt.Fprintf(&b, " (%s)", e.Subject)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind's sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ExitCode returns the process exit status for the error.
func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// NewError creates a new Error.
func NewError(kind Kind, op, subject string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Subject: subject,
		Err:     err,
	}
}

// MissingArtifacts creates an aggregated MissingSourceArtifact error.
func MissingArtifacts(sourceDir string, missing []string) *Error {
	return &Error{
		Kind:    KindMissingSourceArtifact,
		Op:      "validate source",
		Subject: sourceDir,
		Missing: missing,
	}
}

// ExitCodeOf maps any error to a process exit status.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.ExitCode()
	}
	return ExitConfigError
}
