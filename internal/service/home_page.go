package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/notify"
	"github.com/iconidentify/exambot/internal/upload"
	"github.com/iconidentify/exambot/pkg/backend"
)

// Toast texts shown by the home page.
const (
	MsgNoImages         = "Please upload at least one image"
	MsgGenerateFailed   = "Failed to generate. Please try again."
	msgInvalidImageFmt  = "%s is not a valid image format"
	msgImageTooLargeFmt = "%s is too large"
)

// HomePage is the public page: ad slots, uploaded images and the
// generation state machine. Requests it starts are bound to the page
// lifetime and are abandoned when the page is closed.
type HomePage struct {
	client   backend.Client
	encoder  *upload.Encoder
	notifier notify.Notifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	ads    domain.AdSet
	images domain.ImageList
	gen    domain.GenerationState
}

// NewHomePage creates an empty page. Ads are not loaded until FetchAds.
func NewHomePage(deps Deps, notifier notify.Notifier) *HomePage {
	ctx, cancel := context.WithCancel(context.Background())
	return &HomePage{
		client:   deps.Backend,
		encoder:  deps.Encoder,
		notifier: notifier,
		logger:   deps.Logger.With("page", "home"),
		ctx:      ctx,
		cancel:   cancel,
		gen:      domain.GenerationState{Status: domain.GenerationIdle},
	}
}

// Close tears the page down. In-flight requests are cancelled and their
// outcomes are dropped.
func (p *HomePage) Close() {
	p.cancel()
}

// Closed reports whether Close has been called.
func (p *HomePage) Closed() bool {
	return p.ctx.Err() != nil
}

// bind derives a context that ends with either ctx or the page lifetime.
func (p *HomePage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Ads returns the loaded slots, or nil when they were never loaded.
func (p *HomePage) Ads() domain.AdSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ads == nil {
		return nil
	}
	return p.ads.Clone()
}

// Images returns a copy of the uploaded images in display order.
func (p *HomePage) Images() domain.ImageList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(domain.ImageList(nil), p.images...)
}

// State returns the generation state.
func (p *HomePage) State() domain.GenerationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// FetchAds loads the ad slots. Failures are logged only; the page keeps
// whatever it had before.
func (p *HomePage) FetchAds(ctx context.Context) bool {
	ctx, cancel := p.bind(ctx)
	defer cancel()

	ads, err := p.client.FetchAds(ctx)
	if err != nil {
		p.logger.Error("error fetching ads", "error", domain.NewPageError("home", "fetch_ads", err))
		return false
	}
	if p.Closed() {
		return false
	}

	p.mu.Lock()
	p.ads = ads
	p.mu.Unlock()
	return true
}

// HandleImageUpload filters and encodes the selected files. Each accepted
// file is appended as soon as it has been read, so the final order follows
// completion rather than selection.
func (p *HomePage) HandleImageUpload(ctx context.Context, files []upload.File) {
	ctx, cancel := p.bind(ctx)
	defer cancel()

	onReject := func(f upload.File, err error) {
		switch {
		case errors.Is(err, domain.ErrUnsupportedImage):
			notify.Error(p.notifier, fmt.Sprintf(msgInvalidImageFmt, f.Name))
		case errors.Is(err, domain.ErrImageTooLarge):
			notify.Error(p.notifier, fmt.Sprintf(msgImageTooLargeFmt, f.Name))
		default:
			p.logger.Warn("skipping unreadable image", "name", f.Name, "error", err)
		}
	}

	onEncoded := func(img domain.UploadedImage) {
		if p.Closed() {
			return
		}
		p.mu.Lock()
		p.images = p.images.Append(img)
		p.mu.Unlock()
	}

	if err := p.encoder.Encode(ctx, files, onReject, onEncoded); err != nil {
		p.logger.Warn("image upload interrupted", "error", err)
	}
}

// RemoveImage drops one image. Unknown IDs are ignored.
func (p *HomePage) RemoveImage(id domain.ImageID) {
	p.mu.Lock()
	p.images = p.images.Remove(id)
	p.mu.Unlock()
}

// begin applies the empty-images guard and enters the loading state.
func (p *HomePage) begin(kind domain.GenerationKind) ([]string, bool) {
	p.mu.Lock()
	if len(p.images) == 0 {
		p.mu.Unlock()
		notify.Error(p.notifier, MsgNoImages)
		return nil, false
	}
	p.gen = p.gen.Begin(kind)
	payloads := p.images.Payloads()
	p.mu.Unlock()
	return payloads, true
}

func (p *HomePage) finish(ctx context.Context, kind domain.GenerationKind, payloads []string) bool {
	text, err := p.client.Generate(ctx, kind, payloads)

	if p.Closed() {
		p.logger.Debug("dropping generation result for closed page", "kind", kind)
		return false
	}

	if err != nil {
		p.logger.Error("generation failed", "error", domain.NewPageError("home", "generate_"+kind.String(), err))
		p.mu.Lock()
		p.gen = p.gen.Fail()
		p.mu.Unlock()
		notify.Error(p.notifier, MsgGenerateFailed)
		return false
	}

	p.mu.Lock()
	p.gen = p.gen.Succeed(domain.CleanResult(text))
	p.mu.Unlock()
	notify.Success(p.notifier, kind.SuccessMessage())
	return true
}

// Generate runs a generation request and waits for it.
func (p *HomePage) Generate(ctx context.Context, kind domain.GenerationKind) bool {
	payloads, ok := p.begin(kind)
	if !ok {
		return false
	}

	ctx, cancel := p.bind(ctx)
	defer cancel()
	return p.finish(ctx, kind, payloads)
}

// StartGenerate enters the loading state and runs the request in the
// background on the page lifetime. The returned channel closes when the
// request ends. ok is false when the guard rejected the call.
func (p *HomePage) StartGenerate(kind domain.GenerationKind) (done <-chan struct{}, ok bool) {
	payloads, ok := p.begin(kind)
	if !ok {
		return nil, false
	}

	ch := make(chan struct{})
	go func() {
		defer close(ch)
		p.finish(p.ctx, kind, payloads)
	}()
	return ch, true
}
