package arch

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/modempack/pkg/arch/compress"
	"github.com/provide-io/modempack/pkg/logging"
)

// Decompressor expands a compressed data region. The default
// implementation selects a codec from the compress package by zip mode.
type Decompressor interface {
	Decompress(mode ZipMode, data []byte, expectedSize uint32) ([]byte, error)
}

type codecDecompressor struct{}

func (codecDecompressor) Decompress(mode ZipMode, data []byte, expectedSize uint32) ([]byte, error) {
	c, err := compress.Get(uint8(mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedZipMode, err)
	}
	return c.Decompress(data, expectedSize)
}

// AuthenticateFunc re-checks a written or staged image before it is
// committed. path is the file holding the candidate bytes. For the
// staged-copy write path a failure discards the staged copy and keeps
// the previous image.
type AuthenticateFunc func(ctx context.Context, path string) error

// DispatcherConfig carries the dispatcher collaborators. Zero values get
// safe defaults.
type DispatcherConfig struct {
	Codec        Codec // zero value decodes little-endian layouts
	Decompressor Decompressor
	Logger       hclog.Logger
	Metrics      Metrics
}

// Dispatcher executes the correct mutation path for a validated archive:
// patch application for patch-only kinds, direct overwrite for kinds
// flagged write-during-auth, and a staged copy with an atomic swap for
// everything else.
//
// Requests for the same target location serialize; requests for distinct
// locations proceed independently. No retries are performed here.
type Dispatcher struct {
	codec   Codec
	decomp  Decompressor
	logger  hclog.Logger
	metrics Metrics

	mu       sync.Mutex
	targets  map[string]*sync.Mutex
	handlers map[Kind]PatchHandler
}

// NewDispatcher builds a dispatcher. Register patch handlers during
// setup, before archives are dispatched.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Decompressor == nil {
		cfg.Decompressor = codecDecompressor{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default("dispatcher")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetrics{}
	}
	if cfg.Codec.order == nil {
		cfg.Codec = NewCodec(nil)
	}
	return &Dispatcher{
		codec:    cfg.Codec,
		decomp:   cfg.Decompressor,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		targets:  make(map[string]*sync.Mutex),
		handlers: make(map[Kind]PatchHandler),
	}
}

// RegisterPatchHandler registers the handler invoked for a patch-only
// archive kind.
func (d *Dispatcher) RegisterPatchHandler(kind Kind, h PatchHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Dispatch routes a validated archive to Patch or Write based on its
// property record.
func (d *Dispatcher) Dispatch(ctx context.Context, res *Resolution, raw []byte, target string, auth AuthenticateFunc) error {
	if res.Property.IsPatch {
		return d.Patch(ctx, res, raw, target)
	}
	return d.Write(ctx, res, raw, target, auth)
}

// Write programs a validated archive's data region into the target
// image location.
//
// Kinds flagged write-during-auth overwrite the target in place; a
// failing auth hook then leaves the overwritten file behind, which is
// the flag's documented trade-off. All other kinds stage to a temporary
// copy, run the auth hook against it, and swap atomically on success.
func (d *Dispatcher) Write(ctx context.Context, res *Resolution, raw []byte, target string, auth AuthenticateFunc) error {
	kind := res.Kind.String()

	if res.Property.IsPatch {
		d.metrics.IncDispatchFailed(kind, "patch_only_violation")
		return fmt.Errorf("%w: %s", ErrPatchOnlyViolation, kind)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := d.expand(res, raw)
	if err != nil {
		d.metrics.IncDispatchFailed(kind, "payload")
		return err
	}

	lock := d.lockFor(target)
	lock.Lock()
	defer lock.Unlock()

	if res.Property.WriteDuringAuth {
		if err := os.WriteFile(target, data, 0o600); err != nil {
			d.metrics.IncDispatchFailed(kind, "write")
			return fmt.Errorf("writing %s image: %w", kind, err)
		}
		if auth != nil {
			if err := auth(ctx, target); err != nil {
				d.metrics.IncDispatchFailed(kind, "authentication")
				return err
			}
		}
		d.logger.Debug("image overwritten in place", "kind", kind, "target", target, "size", len(data))
		// The image is committed at this point; a sidecar failure is
		// reported on top of the completed dispatch, not instead of it.
		d.metrics.IncDispatched(kind, "overwrite")
		if err := d.persistWrappedInfo(res, target, len(data)); err != nil {
			d.metrics.IncDispatchFailed(kind, "wrapped_info")
			return err
		}
		return nil
	}

	release, err := d.acquireStageLock(target)
	if err != nil {
		d.metrics.IncDispatchFailed(kind, "staging_conflict")
		return err
	}
	defer release()

	staged := fmt.Sprintf("%s.stage-%s", target, uuid.NewString())
	if err := os.WriteFile(staged, data, 0o600); err != nil {
		d.metrics.IncDispatchFailed(kind, "staging")
		return fmt.Errorf("staging %s image: %w", kind, err)
	}

	if auth != nil {
		if err := auth(ctx, staged); err != nil {
			os.Remove(staged)
			d.logger.Debug("staged copy discarded, previous image kept", "kind", kind, "target", target)
			d.metrics.IncDispatchFailed(kind, "authentication")
			return err
		}
	}

	if err := os.Rename(staged, target); err != nil {
		os.Remove(staged)
		d.metrics.IncDispatchFailed(kind, "swap")
		return fmt.Errorf("swapping %s image: %w", kind, err)
	}

	d.logger.Debug("staged image swapped in", "kind", kind, "target", target, "size", len(data))
	d.metrics.IncDispatched(kind, "staged_swap")
	if err := d.persistWrappedInfo(res, target, len(data)); err != nil {
		d.metrics.IncDispatchFailed(kind, "wrapped_info")
		return err
	}
	return nil
}

// Patch applies a patch-kind archive against the existing image at
// target. The previous image is never overwritten here; a failing
// handler leaves it untouched.
func (d *Dispatcher) Patch(ctx context.Context, res *Resolution, raw []byte, target string) error {
	kind := res.Kind.String()

	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	handler, ok := d.handlers[res.Kind]
	d.mu.Unlock()
	if !ok {
		d.metrics.IncDispatchFailed(kind, "no_handler")
		return fmt.Errorf("%w: no handler registered for %s", ErrPatchApplicationFailed, kind)
	}

	data, err := d.expand(res, raw)
	if err != nil {
		d.metrics.IncDispatchFailed(kind, "payload")
		return err
	}

	lock := d.lockFor(target)
	lock.Lock()
	defer lock.Unlock()

	hdr := res.Header
	if rc := handler.Apply(&hdr, data); rc != 0 {
		d.metrics.IncDispatchFailed(kind, "handler")
		return fmt.Errorf("%w: %s handler returned %d", ErrPatchApplicationFailed, kind, rc)
	}

	d.logger.Debug("patch applied", "kind", kind, "target", target)
	d.metrics.IncDispatched(kind, "patch")
	if err := d.persistWrappedInfo(res, target, len(data)); err != nil {
		d.metrics.IncDispatchFailed(kind, "wrapped_info")
		return err
	}
	return nil
}

// expand returns the archive data region, decompressed when the file id
// carries a non-none zip mode.
func (d *Dispatcher) expand(res *Resolution, raw []byte) ([]byte, error) {
	payload, err := d.codec.Payload(raw, &res.Header)
	if err != nil {
		return nil, err
	}
	if res.ZipMode == ZipModeNone {
		return payload, nil
	}

	zh, err := d.codec.DecodeZipHeader(payload)
	if err != nil {
		return nil, err
	}
	end := int64(zh.Length) + int64(zh.FileSize)
	if end > int64(len(payload)) {
		return nil, fmt.Errorf("%w: compressed region needs %d bytes, have %d", ErrTruncatedArchive, end, len(payload))
	}
	return d.decomp.Decompress(res.ZipMode, payload[zh.Length:end], 0)
}

// lockFor returns the in-process mutex serializing mutations of one
// target location.
func (d *Dispatcher) lockFor(target string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.targets[target]
	if !ok {
		m = &sync.Mutex{}
		d.targets[target] = m
	}
	return m
}

// acquireStageLock guards the staged-copy sequence against other
// processes with an exclusive pid lock file next to the target. A lock
// held by a live process is a staging conflict; a stale lock from a dead
// process is removed.
func (d *Dispatcher) acquireStageLock(target string) (func(), error) {
	lockPath := target + ".lock"
	pid := os.Getpid()

	if data, err := os.ReadFile(lockPath); err == nil {
		contents := strings.TrimSpace(string(data))
		if oldPid, err := strconv.Atoi(contents); err == nil && isProcessRunning(oldPid) {
			return nil, fmt.Errorf("%w: %s held by pid %d", ErrStagingConflict, lockPath, oldPid)
		}
		d.logger.Debug("removing stale stage lock", "path", lockPath)
		os.Remove(lockPath)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStagingConflict, lockPath)
		}
		return nil, err
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		os.Remove(lockPath)
		return nil, err
	}

	return func() { os.Remove(lockPath) }, nil
}

// isProcessRunning checks if a process with the given pid is alive. On
// Unix, Signal(0) probes for existence without sending a signal.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
