package rules

import (
	"errors"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.ScreensCount() != 0 {
		t.Errorf("expected 0 screens, got %d", engine.ScreensCount())
	}
}

func TestLoadScreen(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	screen := &domain.ScreenConfig{
		ID:         "high-mad",
		Name:       "High MAD",
		Expression: "mad > 0.015",
		Enabled:    true,
	}

	if err := engine.LoadScreen(screen); err != nil {
		t.Fatalf("failed to load screen: %v", err)
	}

	if engine.ScreensCount() != 1 {
		t.Errorf("expected 1 screen, got %d", engine.ScreensCount())
	}
}

func TestLoadInvalidScreen(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	t.Run("Syntax", func(t *testing.T) {
		err := engine.LoadScreen(&domain.ScreenConfig{
			ID:         "invalid",
			Expression: "this is not valid CEL !!!",
			Enabled:    true,
		})
		if err == nil {
			t.Error("expected error for invalid CEL expression")
		}
	})

	t.Run("NonBoolean", func(t *testing.T) {
		err := engine.LoadScreen(&domain.ScreenConfig{
			ID:         "numeric",
			Expression: "mad * 2.0",
			Enabled:    true,
		})
		if err == nil {
			t.Error("expected error for non-boolean expression")
		}
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		err := engine.ValidateScreen(&domain.ScreenConfig{
			ID:         "unknown",
			Expression: "amount > 10.0",
		})
		if err == nil {
			t.Error("expected error for undeclared variable")
		}
	})

	if engine.ScreensCount() != 0 {
		t.Errorf("invalid screens must not load, got %d", engine.ScreensCount())
	}
}

func TestPredicate(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	_ = engine.LoadScreen(&domain.ScreenConfig{
		ID:         "flagged-bs",
		Name:       "Flagged balance sheets",
		Expression: `fraud_flag == 1 && statement_type == "Balance Sheet" && year >= 2021`,
		Enabled:    true,
	})

	pred, expr, err := engine.Predicate("flagged-bs")
	if err != nil {
		t.Fatalf("Predicate failed: %v", err)
	}
	if expr == "" {
		t.Error("expected expression to be returned")
	}

	match := domain.Observation{Year: 2022, StatementType: "Balance Sheet", FraudFlag: 1}
	if !pred(match) {
		t.Error("expected flagged balance sheet to match")
	}

	miss := domain.Observation{Year: 2022, StatementType: "Income Statement", FraudFlag: 1}
	if pred(miss) {
		t.Error("expected income statement not to match")
	}

	old := domain.Observation{Year: 2019, StatementType: "Balance Sheet", FraudFlag: 1}
	if pred(old) {
		t.Error("expected 2019 row not to match")
	}
}

func TestPredicateEvaluationErrorDoesNotMatch(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	// Integer division by zero fails at evaluation time.
	_ = engine.LoadScreen(&domain.ScreenConfig{
		ID:         "div",
		Expression: "year / (fraud_flag - fraud_flag) > 0",
		Enabled:    true,
	})

	pred, _, err := engine.Predicate("div")
	if err != nil {
		t.Fatalf("Predicate failed: %v", err)
	}
	if pred(domain.Observation{Year: 2021}) {
		t.Error("expected evaluation error to be treated as no match")
	}
}

func TestPredicateUnknownScreen(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	_, _, err := engine.Predicate("nope")
	if !errors.Is(err, ErrScreenNotFound) {
		t.Errorf("expected ErrScreenNotFound, got %v", err)
	}
}

func TestReloadScreens(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	_ = engine.LoadScreen(&domain.ScreenConfig{ID: "old", Expression: "mad > 0.1", Enabled: true})

	err := engine.ReloadScreens([]*domain.ScreenConfig{
		{ID: "b", Expression: "chi_square > 20.0", Enabled: true},
		{ID: "a", Expression: "avg_z_score > 1.96", Enabled: true},
		{ID: "off", Expression: "true", Enabled: false},
	})
	if err != nil {
		t.Fatalf("ReloadScreens failed: %v", err)
	}

	loaded := engine.GetLoadedScreens()
	if len(loaded) != 2 {
		t.Fatalf("expected 2 screens, got %d", len(loaded))
	}
	if loaded[0].ID != "a" || loaded[1].ID != "b" {
		t.Errorf("expected screens ordered by id, got %s, %s", loaded[0].ID, loaded[1].ID)
	}

	t.Run("FailedReloadKeepsPrevious", func(t *testing.T) {
		err := engine.ReloadScreens([]*domain.ScreenConfig{
			{ID: "bad", Expression: "???", Enabled: true},
		})
		if err == nil {
			t.Fatal("expected reload error")
		}
		if engine.ScreensCount() != 2 {
			t.Errorf("expected previous 2 screens kept, got %d", engine.ScreensCount())
		}
	})

	t.Run("Remove", func(t *testing.T) {
		engine.RemoveScreen("a")
		if engine.ScreensCount() != 1 {
			t.Errorf("expected 1 screen after remove, got %d", engine.ScreensCount())
		}
	})
}
