package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"faregate/internal/carduid"
	"faregate/internal/config"
)

// CardDetectService polls the reader broker for a freshly presented
// card and returns its canonical identifier. The broker exposes a pin
// that the reader writes raw UIDs to; the pin is cleared before and
// after a detection so stale reads are never returned.
type CardDetectService struct {
	client *http.Client
	cfg    config.ReaderConfig
}

// NewCardDetectService creates a new CardDetectService.
func NewCardDetectService(cfg config.ReaderConfig) *CardDetectService {
	return &CardDetectService{
		client: &http.Client{Timeout: 10 * time.Second},
		cfg:    cfg,
	}
}

// Detect waits for a card to be presented to the reader, polling the
// broker at the configured interval until the polling budget or ctx
// expires. Returns ErrReaderTimeout when no valid card shows up.
func (s *CardDetectService) Detect(ctx context.Context) (string, error) {
	if s.cfg.BrokerGetURL == "" {
		return "", ErrReaderNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	// Clear the pin first so a UID from a previous tap is not replayed.
	s.clearPin(ctx)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.clearPin(context.WithoutCancel(ctx))
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrReaderTimeout
			}
			return "", ctx.Err()
		case <-ticker.C:
			raw, err := s.readPin(ctx)
			if err != nil {
				return "", err
			}

			// The broker reports "0" while no card is present.
			if raw == "" || raw == "0" {
				continue
			}

			cardUID, err := carduid.Normalize(raw)
			if err != nil {
				// Garbled partial read; keep polling.
				continue
			}

			s.clearPin(ctx)
			return cardUID, nil
		}
	}
}

func (s *CardDetectService) readPin(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BrokerGetURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// clearPin resets the broker pin. Failures are ignored: the worst case
// is one garbled poll cycle.
func (s *CardDetectService) clearPin(ctx context.Context) {
	if s.cfg.BrokerClearURL == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BrokerClearURL, nil)
	if err != nil {
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}
