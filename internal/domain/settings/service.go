package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Service struct {
	settings Repository
}

func NewService(settings Repository) *Service {
	return &Service{settings: settings}
}

// Get returns the clinic settings, materializing the defaults on first read.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	existing, err := s.settings.Get(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	def := Defaults()
	if err := s.settings.Create(ctx, def); err != nil {
		// A concurrent first read may have created the row already.
		if existing, getErr := s.settings.Get(ctx); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return def, nil
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func validateHours(h Hours) error {
	for day, dh := range h {
		known := false
		for _, w := range weekdays {
			if day == w {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown weekday: %s", day)
		}
		if dh.Closed {
			continue
		}
		open, err := time.Parse("15:04", dh.Open)
		if err != nil {
			return fmt.Errorf("%s: invalid opening time %q", day, dh.Open)
		}
		close_, err := time.Parse("15:04", dh.Close)
		if err != nil {
			return fmt.Errorf("%s: invalid closing time %q", day, dh.Close)
		}
		if !open.Before(close_) {
			return fmt.Errorf("%s: opening time must be before closing time", day)
		}
	}
	return nil
}

// Update validates and persists the settings. A known currency code fills in
// its symbol when the caller leaves the symbol blank.
func (s *Service) Update(ctx context.Context, in *Settings) (*Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if in.ClinicName == "" {
		return nil, fmt.Errorf("clinic_name is required")
	}
	if in.DefaultTaxRate.IsNegative() || in.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("default_tax_rate must be between 0 and 100")
	}
	if in.Hours != nil {
		if err := validateHours(in.Hours); err != nil {
			return nil, err
		}
	} else {
		in.Hours = current.Hours
	}
	if in.InvoicePrefix == "" {
		in.InvoicePrefix = current.InvoicePrefix
	}
	if in.CurrencyCode == "" {
		in.CurrencyCode = current.CurrencyCode
		in.CurrencySymbol = current.CurrencySymbol
	} else if symbol, ok := Currencies[in.CurrencyCode]; ok && in.CurrencySymbol == "" {
		in.CurrencySymbol = symbol
	}
	if in.CurrencySymbol == "" {
		return nil, fmt.Errorf("unknown currency %q, currency_symbol is required", in.CurrencyCode)
	}

	in.ID = current.ID
	if err := s.settings.Update(ctx, in); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx)
}
