package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const toastFlashKey = "toasts"

type toastBufferKey struct{}

type toastBuffer struct {
	mu     sync.Mutex
	toasts []interfaces.Toast
}

func (b *toastBuffer) add(toast interfaces.Toast) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toasts = append(b.toasts, toast)
}

func (b *toastBuffer) drain() []interfaces.Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.toasts
	b.toasts = nil
	return out
}

// withToasts scopes a toast buffer to one request.
func withToasts(ctx context.Context) (context.Context, *toastBuffer) {
	buf := &toastBuffer{}
	return context.WithValue(ctx, toastBufferKey{}, buf), buf
}

// FlashNotifier collects toasts raised while handling a request so the
// dashboard can store them as session flashes. Toasts raised outside a
// request go to Next when set.
type FlashNotifier struct {
	Next interfaces.Notifier
}

// Notify implements interfaces.Notifier.
func (n FlashNotifier) Notify(ctx context.Context, toast interfaces.Toast) {
	if ctx != nil {
		if buf, ok := ctx.Value(toastBufferKey{}).(*toastBuffer); ok {
			buf.add(toast)
			return
		}
	}
	if n.Next != nil {
		n.Next.Notify(ctx, toast)
	}
}

// flashes persists and restores toasts through a cookie session.
type flashes struct {
	store sessions.Store
	name  string
}

func (f flashes) save(w http.ResponseWriter, r *http.Request, toasts []interfaces.Toast) error {
	if len(toasts) == 0 || f.store == nil {
		return nil
	}
	session, err := f.store.Get(r, f.name)
	if err != nil && session == nil {
		return err
	}
	for _, toast := range toasts {
		raw, err := json.Marshal(toast)
		if err != nil {
			return err
		}
		session.AddFlash(string(raw), toastFlashKey)
	}
	return session.Save(r, w)
}

// take returns pending toasts and clears them from the session. A broken
// session cookie yields no toasts.
func (f flashes) take(w http.ResponseWriter, r *http.Request) []interfaces.Toast {
	if f.store == nil {
		return nil
	}
	session, err := f.store.Get(r, f.name)
	if err != nil || session == nil {
		return nil
	}
	pending := session.Flashes(toastFlashKey)
	if len(pending) == 0 {
		return nil
	}
	out := make([]interfaces.Toast, 0, len(pending))
	for _, item := range pending {
		raw, ok := item.(string)
		if !ok {
			continue
		}
		var toast interfaces.Toast
		if err := json.Unmarshal([]byte(raw), &toast); err == nil {
			out = append(out, toast)
		}
	}
	_ = session.Save(r, w)
	return out
}
