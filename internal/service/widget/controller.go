package widget

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/docchat/internal/client"
	"github.com/zhouzirui/docchat/internal/config"
	model "github.com/zhouzirui/docchat/internal/model/widget"
)

var (
	// ErrMissingWorkspace aborts a mount: no widget is shown without a workspace.
	ErrMissingWorkspace = errors.New("workspace id is required")
	// ErrSendInFlight rejects a send while the previous one is outstanding.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// Backend is the remote API a controller talks to.
type Backend interface {
	FetchSettings(ctx context.Context, workspaceID string) (model.Settings, error)
	Query(ctx context.Context, workspaceID, message string) (client.QueryReply, error)
}

// MountConfig carries what the host supplies at mount time. It is read once.
type MountConfig struct {
	WorkspaceID string
	// BackendBase defaults to the host origin when empty.
	BackendBase string
}

// Controller is one mounted assistant widget. Every piece of state belongs to
// the instance, so several controllers can live in one process.
type Controller struct {
	workspaceID string
	backend     Backend
	surface     Surface
	logger      zerolog.Logger
	transcript  *model.Transcript

	// turnMu serialises visibility transitions with the user-turn append in
	// Send, so the greeting check and its append see no user turn in between.
	turnMu sync.Mutex

	mu         sync.Mutex
	profile    model.PresentationProfile
	visibility model.Visibility
	request    model.RequestState

	resolved chan struct{}
}

type mountOptions struct {
	backend    Backend
	logger     zerolog.Logger
	clientOpts []client.Option
}

// Option customises Mount.
type Option func(*mountOptions)

// WithBackend replaces the HTTP client built from MountConfig.BackendBase.
func WithBackend(backend Backend) Option {
	return func(o *mountOptions) {
		o.backend = backend
	}
}

// WithLogger sets the logger used for non-user-visible diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *mountOptions) {
		o.logger = logger
	}
}

// WithClientOptions passes options to the HTTP client built by Mount.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *mountOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// Mount validates the host configuration, paints the default profile and
// starts the one-time profile resolution in the background.
func Mount(ctx context.Context, cfg MountConfig, surface Surface, opts ...Option) (*Controller, error) {
	workspaceID := strings.TrimSpace(cfg.WorkspaceID)
	if workspaceID == "" {
		return nil, ErrMissingWorkspace
	}

	options := mountOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}

	backend := options.backend
	if backend == nil {
		base := strings.TrimSpace(cfg.BackendBase)
		if base == "" {
			base = config.DefaultAPIURL
		}
		httpClient, err := client.New(base, options.clientOpts...)
		if err != nil {
			return nil, err
		}
		options.logger.Debug().
			Str("workspace_id", workspaceID).
			Str("backend", httpClient.BaseURL()).
			Msg("widget backend selected")
		backend = httpClient
	}

	if surface == nil {
		surface = NopSurface{}
	}

	c := &Controller{
		workspaceID: workspaceID,
		backend:     backend,
		surface:     surface,
		logger:      options.logger.With().Str("workspace_id", workspaceID).Logger(),
		transcript:  model.NewTranscript(),
		profile:     model.DefaultProfile(),
		visibility:  model.Closed,
		resolved:    make(chan struct{}),
	}

	c.surface.ApplyProfile(c.profile)
	go c.resolveProfile(ctx)

	return c, nil
}

// resolveProfile fetches the workspace settings once. Failures keep the
// defaults and are only logged.
func (c *Controller) resolveProfile(ctx context.Context) {
	defer close(c.resolved)

	profile := model.DefaultProfile()
	settings, err := c.backend.FetchSettings(ctx, c.workspaceID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("could not fetch widget settings, using defaults")
	} else {
		profile = settings.Profile()
	}

	c.mu.Lock()
	c.profile = profile
	c.mu.Unlock()

	c.surface.ApplyProfile(profile)
	c.logger.Debug().
		Str("display_name", profile.DisplayName).
		Str("anchor_side", string(profile.AnchorSide)).
		Msg("widget profile resolved")
}

// Resolved is closed once the profile resolution has finished, whatever its
// result.
func (c *Controller) Resolved() <-chan struct{} {
	return c.resolved
}

// WorkspaceID returns the workspace this widget is bound to.
func (c *Controller) WorkspaceID() string {
	return c.workspaceID
}

// Profile returns the profile currently applied.
func (c *Controller) Profile() model.PresentationProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// State returns the request slot.
func (c *Controller) State() model.RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request
}

// Visibility returns whether the chat window is open.
func (c *Controller) Visibility() model.Visibility {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibility
}

// Transcript exposes the conversation log for reading.
func (c *Controller) Transcript() *model.Transcript {
	return c.transcript
}

func (c *Controller) appendTurn(turn model.Turn) {
	c.transcript.Append(turn)
	c.surface.ShowTurn(turn)
}
