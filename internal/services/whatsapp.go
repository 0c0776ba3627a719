package services

import (
	"context"
	"log"
	"strings"
	"sync"
)

// WhatsAppService is the inbound entry point: it normalizes the sender
// into a phone key, serializes processing per key so messages from the
// same number are handled in arrival order, and hands the message to
// the conversation engine.
type WhatsAppService struct {
	engine *ConversationEngine

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWhatsAppService creates a new WhatsApp service
func NewWhatsAppService(engine *ConversationEngine) *WhatsAppService {
	return &WhatsAppService{
		engine: engine,
		locks:  make(map[string]*sync.Mutex),
	}
}

// ProcessMessage handles one inbound message and returns the reply text
func (w *WhatsAppService) ProcessMessage(ctx context.Context, from, message string) (string, error) {
	phoneKey := NormalizePhoneKey(from)
	if phoneKey == "" || strings.TrimSpace(message) == "" {
		return "", nil
	}

	log.Printf("📱 Processing message from %s: %s", phoneKey, message)

	// Messages from different numbers run concurrently; messages from
	// the same number are strictly FIFO even when a handler awaits a
	// slow external call.
	lock := w.keyLock(phoneKey)
	lock.Lock()
	defer lock.Unlock()

	return w.engine.HandleMessage(ctx, phoneKey, message), nil
}

func (w *WhatsAppService) keyLock(phoneKey string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, exists := w.locks[phoneKey]
	if !exists {
		lock = &sync.Mutex{}
		w.locks[phoneKey] = lock
	}
	return lock
}

// NormalizePhoneKey reduces a transport sender identifier to the digits
// that key the session: the "whatsapp:" prefix, any "@host" suffix and
// every non-digit character are stripped.
func NormalizePhoneKey(from string) string {
	from = strings.TrimPrefix(from, "whatsapp:")
	if at := strings.Index(from, "@"); at >= 0 {
		from = from[:at]
	}
	if colon := strings.Index(from, ":"); colon >= 0 {
		from = from[:colon]
	}
	return onlyDigits(from)
}
