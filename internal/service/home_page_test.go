package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"sort"
	"testing"
	"time"

	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/notify"
	"github.com/iconidentify/exambot/internal/upload"
)

func uploadPNG(t *testing.T, page *HomePage, names ...string) {
	t.Helper()
	var files []upload.File
	for _, name := range names {
		files = append(files, upload.BytesFile(name, "image/png", []byte("png:"+name)))
	}
	page.HandleImageUpload(context.Background(), files)
}

func TestHomePage_FetchAdsFailureIsSilent(t *testing.T) {
	fb := &fakeBackend{fetchErr: errBackendDown}
	q := &notify.Queue{}
	page := NewHomePage(testDeps(t, fb), q)
	defer page.Close()

	if page.FetchAds(context.Background()) {
		t.Fatal("expected fetch to fail")
	}
	if page.Ads() != nil {
		t.Error("ads should stay unloaded")
	}
	if q.Len() != 0 {
		t.Errorf("home page must not toast on ad failures, got %v", messages(q))
	}
}

func TestHomePage_FetchAds(t *testing.T) {
	fb := &fakeBackend{}
	fb.ads, _ = domain.NewAdSet().With(domain.SlotBottom, domain.FieldImageURL, "http://b.png")
	page := NewHomePage(testDeps(t, fb), notify.Discard)
	defer page.Close()

	if !page.FetchAds(context.Background()) {
		t.Fatal("expected fetch to succeed")
	}
	ads := page.Ads()
	if !ads.HasImage(domain.SlotBottom) || ads.HasImage(domain.SlotTop) {
		t.Errorf("unexpected ads %+v", ads)
	}
}

func TestHomePage_HandleImageUpload(t *testing.T) {
	fb := &fakeBackend{}
	q := &notify.Queue{}
	page := NewHomePage(testDeps(t, fb), q)
	defer page.Close()

	files := []upload.File{
		upload.BytesFile("a.png", "image/png", []byte("aaa")),
		upload.BytesFile("notes.pdf", "application/pdf", []byte("%PDF")),
		upload.BytesFile("b.webp", "image/webp", []byte("bbb")),
		upload.BytesFile("huge.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 2048)),
	}
	page.HandleImageUpload(context.Background(), files)

	images := page.Images()
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	var names []string
	for _, img := range images {
		names = append(names, img.Name)
		if img.Preview != "data:"+img.ContentType+";base64,"+img.Base64 {
			t.Errorf("%s: preview and payload disagree", img.Name)
		}
	}
	sort.Strings(names)
	if names[0] != "a.png" || names[1] != "b.webp" {
		t.Errorf("unexpected images %v", names)
	}

	got := messages(q)
	sort.Strings(got)
	want := []string{"huge.jpg is too large", "notes.pdf is not a valid image format"}
	if len(got) != len(want) {
		t.Fatalf("expected toasts %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %q, got %q", want[i], got[i])
		}
	}
}

func TestHomePage_RemoveImage(t *testing.T) {
	page := NewHomePage(testDeps(t, &fakeBackend{}), notify.Discard)
	defer page.Close()
	uploadPNG(t, page, "one.png", "two.png")

	images := page.Images()
	page.RemoveImage("does-not-exist")
	if len(page.Images()) != 2 {
		t.Fatal("unknown id should not remove anything")
	}

	page.RemoveImage(images[0].ID)
	left := page.Images()
	if len(left) != 1 || left[0].ID != images[1].ID {
		t.Errorf("unexpected images after remove: %+v", left)
	}
}

func TestHomePage_GenerateWithoutImages(t *testing.T) {
	fb := &fakeBackend{}
	q := &notify.Queue{}
	page := NewHomePage(testDeps(t, fb), q)
	defer page.Close()

	for _, kind := range []domain.GenerationKind{domain.KindSummary, domain.KindQuestions} {
		if page.Generate(context.Background(), kind) {
			t.Errorf("%s: expected guard to refuse", kind)
		}
	}
	if _, ok := page.StartGenerate(domain.KindSummary); ok {
		t.Error("StartGenerate should refuse too")
	}

	if len(fb.generateCalls()) != 0 {
		t.Error("no request may be made without images")
	}
	if page.State().Status != domain.GenerationIdle {
		t.Errorf("loading must never be set, state is %s", page.State().Status)
	}
	for _, msg := range messages(q) {
		if msg != MsgNoImages {
			t.Errorf("unexpected toast %q", msg)
		}
	}
}

func TestHomePage_GenerateSuccessCleansResult(t *testing.T) {
	fb := &fakeBackend{genText: "**Title**\n# Heading\nSome *text*"}
	q := &notify.Queue{}
	page := NewHomePage(testDeps(t, fb), q)
	defer page.Close()
	uploadPNG(t, page, "page1.png")
	q.Drain()

	if !page.Generate(context.Background(), domain.KindSummary) {
		t.Fatal("expected generation to succeed")
	}

	state := page.State()
	if state.Status != domain.GenerationSuccess {
		t.Errorf("expected success, got %s", state.Status)
	}
	if state.Result != "Title\nHeading\nSome text" {
		t.Errorf("unexpected result %q", state.Result)
	}
	if toast := lastToast(t, q); toast.Message != domain.KindSummary.SuccessMessage() {
		t.Errorf("unexpected toast %q", toast.Message)
	}

	calls := fb.generateCalls()
	if len(calls) != 1 || calls[0].kind != domain.KindSummary {
		t.Fatalf("unexpected calls %+v", calls)
	}
	want := base64.StdEncoding.EncodeToString([]byte("png:page1.png"))
	if len(calls[0].images) != 1 || calls[0].images[0] != want {
		t.Errorf("expected raw base64 payload %q, got %v", want, calls[0].images)
	}
}

func TestHomePage_GenerateSendsEveryUploadedImage(t *testing.T) {
	fb := &fakeBackend{genText: "summary"}
	page := NewHomePage(testDeps(t, fb), notify.Discard)
	defer page.Close()
	uploadPNG(t, page, "front.png", "back.png")

	if !page.Generate(context.Background(), domain.KindSummary) {
		t.Fatal("expected generation to succeed")
	}

	calls := fb.generateCalls()
	if len(calls) != 1 {
		t.Fatalf("generate calls = %d, want 1", len(calls))
	}
	if calls[0].kind != domain.KindSummary {
		t.Errorf("kind = %s, want %s", calls[0].kind, domain.KindSummary)
	}

	got := append([]string(nil), calls[0].images...)
	want := []string{
		base64.StdEncoding.EncodeToString([]byte("png:front.png")),
		base64.StdEncoding.EncodeToString([]byte("png:back.png")),
	}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("payloads = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("payloads = %v, want %v", got, want)
			break
		}
	}
}

func TestHomePage_GenerateFailure(t *testing.T) {
	fb := &fakeBackend{genText: "old", genErr: nil}
	q := &notify.Queue{}
	page := NewHomePage(testDeps(t, fb), q)
	defer page.Close()
	uploadPNG(t, page, "p.png")

	page.Generate(context.Background(), domain.KindQuestions)
	if page.State().Result != "old" {
		t.Fatal("setup: expected first result")
	}

	fb.genErr = errBackendDown
	q.Drain()
	if page.Generate(context.Background(), domain.KindQuestions) {
		t.Fatal("expected failure")
	}

	state := page.State()
	if state.Status != domain.GenerationFailed || state.Loading() {
		t.Errorf("unexpected status %s", state.Status)
	}
	if state.Result != "" {
		t.Errorf("previous result should be cleared, got %q", state.Result)
	}
	if toast := lastToast(t, q); toast.Message != MsgGenerateFailed || toast.Level != domain.NoticeError {
		t.Errorf("unexpected toast %+v", toast)
	}
}

func TestHomePage_StartGenerate(t *testing.T) {
	fb := &fakeBackend{genText: "## Q1", genBlock: make(chan struct{})}
	page := NewHomePage(testDeps(t, fb), notify.Discard)
	defer page.Close()
	uploadPNG(t, page, "p.png")

	done, ok := page.StartGenerate(domain.KindQuestions)
	if !ok {
		t.Fatal("expected request to start")
	}
	if !page.State().Loading() {
		t.Error("state should be loading while the request is in flight")
	}

	close(fb.genBlock)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not finish")
	}

	state := page.State()
	if state.Status != domain.GenerationSuccess || state.Result != "Q1" {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestHomePage_CloseAbandonsInFlightRequest(t *testing.T) {
	fb := &fakeBackend{genText: "late", genBlock: make(chan struct{})}
	q := &notify.Queue{}
	page := NewHomePage(testDeps(t, fb), q)
	uploadPNG(t, page, "p.png")
	q.Drain()

	done, ok := page.StartGenerate(domain.KindSummary)
	if !ok {
		t.Fatal("expected request to start")
	}
	page.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("request was not cancelled")
	}

	if page.State().Result != "" {
		t.Error("closed page must not store a result")
	}
	if q.Len() != 0 {
		t.Errorf("closed page must not toast, got %v", messages(q))
	}
}
