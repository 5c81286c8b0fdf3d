package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"market-momentum-trader/internal/model"
)

func samplePortfolio() *model.Portfolio {
	pf := model.NewPortfolio(decimal.RequireFromString("1000"))
	pf.Cash = decimal.RequireFromString("123.456789")
	pf.TradingPaused = true
	pf.DayStart = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	pf.Positions["AAPL"] = &model.Position{
		Symbol:     "AAPL",
		Side:       model.DirLong,
		Quantity:   decimal.RequireFromString("0.333333"),
		EntryPrice: decimal.RequireFromString("187.91"),
		MarkPrice:  decimal.RequireFromString("189.05"),
		OpenedAt:   time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}
	pf.Trades = append(pf.Trades, model.TradeRecord{
		EntryTime:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		ExitTime:      time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
		Symbol:        "BTCUSDT",
		Side:          model.DirShort,
		EntryPrice:    decimal.RequireFromString("65000"),
		ExitPrice:     decimal.RequireFromString("64500"),
		Quantity:      decimal.RequireFromString("0.01"),
		RealizedPnL:   decimal.RequireFromString("5"),
		TriggerReason: "TP",
	})
	return pf
}

func TestLoadMissingFileReturnsErrNotFound(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "portfolio.json"))
	_, err := s.Load()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "portfolio.json")
	s := NewFileStore(path)

	want := samplePortfolio()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// decimal 必须按字符串精确往返
	if !got.Cash.Equal(want.Cash) {
		t.Fatalf("cash mismatch: want %s, got %s", want.Cash, got.Cash)
	}
	if !got.InitialCapital.Equal(want.InitialCapital) {
		t.Fatalf("initial capital mismatch: got %s", got.InitialCapital)
	}
	if !got.TradingPaused {
		t.Fatal("trading paused flag lost")
	}
	if !got.DayStart.Equal(want.DayStart) {
		t.Fatalf("day start mismatch: got %s", got.DayStart)
	}

	pos, ok := got.Positions["AAPL"]
	if !ok {
		t.Fatal("position lost in round trip")
	}
	if pos.Side != model.DirLong {
		t.Fatalf("position side mismatch: %s", pos.Side)
	}
	if !pos.Quantity.Equal(decimal.RequireFromString("0.333333")) {
		t.Fatalf("quantity mismatch: %s", pos.Quantity)
	}
	if !pos.EntryPrice.Equal(decimal.RequireFromString("187.91")) {
		t.Fatalf("entry price mismatch: %s", pos.EntryPrice)
	}

	if len(got.Trades) != 1 {
		t.Fatalf("expected 1 trade record, got %d", len(got.Trades))
	}
	tr := got.Trades[0]
	if tr.Side != model.DirShort || tr.TriggerReason != "TP" {
		t.Fatalf("trade record fields lost: %+v", tr)
	}
	if !tr.RealizedPnL.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("realized pnl mismatch: %s", tr.RealizedPnL)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	s := NewFileStore(path)

	first := samplePortfolio()
	if err := s.Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := model.NewPortfolio(decimal.RequireFromString("42"))
	if err := s.Save(second); err != nil {
		t.Fatalf("Save (overwrite): %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Cash.Equal(decimal.RequireFromString("42")) {
		t.Fatalf("expected overwritten state, got cash %s", got.Cash)
	}
	if len(got.Positions) != 0 {
		t.Fatal("overwrite must not leak positions from previous state")
	}

	// rename 之后临时文件不残留
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestLoadNilPositionsMapIsInitialised(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	if err := os.WriteFile(path, []byte(`{"cash":"10","initial_capital":"10"}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Positions == nil {
		t.Fatal("positions map must be non-nil after load")
	}
	if !got.Cash.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("cash mismatch: %s", got.Cash)
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := NewFileStore(path).Load()
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
