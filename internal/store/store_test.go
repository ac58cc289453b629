package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuote(ref string, line domain.InsuranceType, agent string, total int64, at time.Time) *domain.SubmittedQuote {
	draft := domain.NewQuoteDraft(line, at.Add(-time.Hour))
	draft.Merge(map[string]string{"fullName": "Jane Wanjiku", "phoneNumber": "0712345678"})
	draft.SetAddOns([]string{"loss_of_use"})
	draft.Premium = &domain.PremiumBreakdown{
		Line:          line,
		Product:       "standard",
		PremiumAmount: decimal.NewFromInt(total - 100),
		AddOnTotal:    decimal.NewFromInt(3000),
		StatutoryCharges: domain.StatutoryCharges{
			StampDuty: decimal.NewFromInt(40),
			PHCF:      decimal.NewFromInt(60),
		},
		Total: decimal.NewFromInt(total),
	}
	q := domain.NewSubmittedQuote(draft, agent, at)
	q.Reference = ref
	return q
}

func storeFactories(t *testing.T) map[string]func() QuoteStore {
	return map[string]func() QuoteStore{
		"memory": func() QuoteStore { return NewMemoryStore() },
		"sqlite": func() QuoteStore {
			s, err := OpenSQL("sqlite", ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestQuoteStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			q := sampleQuote("QT-MTR-20250301-aaaa0001", domain.InsuranceMotor, "agent-1", 40300, at)
			require.NoError(t, s.Save(ctx, q))

			got, err := s.Get(ctx, q.Reference)
			require.NoError(t, err)
			assert.Equal(t, q.Reference, got.Reference)
			assert.Equal(t, domain.InsuranceMotor, got.InsuranceType)
			assert.Equal(t, domain.StatusSubmitted, got.Status)
			assert.Equal(t, "agent-1", got.AgentID)
			assert.True(t, got.Total.Equal(decimal.NewFromInt(40300)))
			assert.True(t, got.SubmittedAt.Equal(at))
			assert.Equal(t, q.Draft.ID, got.Draft.ID)
			assert.Equal(t, "Jane Wanjiku", got.Draft.Field("fullName"))
			assert.Equal(t, []string{"loss_of_use"}, got.Draft.SelectedAddOnIDs)
			require.NotNil(t, got.Draft.Premium)
			assert.True(t, got.Draft.Premium.Total.Equal(decimal.NewFromInt(40300)))

			assert.Error(t, s.Save(ctx, q), "references are unique")

			_, err = s.Get(ctx, "QT-NOPE")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestQuoteStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			require.NoError(t, s.Save(ctx, sampleQuote("QT-MTR-1", domain.InsuranceMotor, "agent-1", 40300, base)))
			require.NoError(t, s.Save(ctx, sampleQuote("QT-WIB-2", domain.InsuranceWIBA, "agent-2", 50000, base.Add(time.Hour))))
			require.NoError(t, s.Save(ctx, sampleQuote("QT-MTR-3", domain.InsuranceMotor, "agent-2", 15200, base.Add(2*time.Hour))))
			require.NoError(t, s.UpdateStatus(ctx, "QT-MTR-3", domain.StatusConverted))

			tests := []struct {
				name   string
				filter Filter
				want   []string
			}{
				{"all newest first", Filter{}, []string{"QT-MTR-3", "QT-WIB-2", "QT-MTR-1"}},
				{"by line", Filter{Line: domain.InsuranceMotor}, []string{"QT-MTR-3", "QT-MTR-1"}},
				{"by status", Filter{Status: domain.StatusSubmitted}, []string{"QT-WIB-2", "QT-MTR-1"}},
				{"search agent", Filter{Search: "AGENT-2"}, []string{"QT-MTR-3", "QT-WIB-2"}},
				{"search reference", Filter{Search: "wib"}, []string{"QT-WIB-2"}},
				{"combined", Filter{Line: domain.InsuranceMotor, Status: domain.StatusConverted}, []string{"QT-MTR-3"}},
				{"no match", Filter{Line: domain.InsuranceTravel}, []string{}},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					quotes, err := s.List(ctx, tt.filter)
					require.NoError(t, err)
					refs := make([]string, 0, len(quotes))
					for _, q := range quotes {
						refs = append(refs, q.Reference)
					}
					assert.Equal(t, tt.want, refs)
				})
			}
		})
	}
}

func TestQuoteStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			require.NoError(t, s.Save(ctx, sampleQuote("QT-LEX-1", domain.InsuranceLastExpense, "agent-9", 1500, at)))

			require.NoError(t, s.UpdateStatus(ctx, "QT-LEX-1", domain.StatusExpired))
			got, err := s.Get(ctx, "QT-LEX-1")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusExpired, got.Status)
			assert.Equal(t, domain.StatusExpired, got.Draft.Status)

			err = s.UpdateStatus(ctx, "QT-NOPE", domain.StatusExpired)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	q := sampleQuote("QT-MED-1", domain.InsuranceMedical, "agent-1", 300000, time.Now())
	require.NoError(t, s.Save(ctx, q))

	q.Draft.Fields["fullName"] = "changed"
	got, err := s.Get(ctx, "QT-MED-1")
	require.NoError(t, err)
	got.Draft.Fields["phoneNumber"] = "changed"

	again, err := s.Get(ctx, "QT-MED-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Wanjiku", again.Draft.Field("fullName"))
	assert.Equal(t, "0712345678", again.Draft.Field("phoneNumber"))
}

func TestOpenSQL_UnknownDriver(t *testing.T) {
	_, err := OpenSQL("oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestCreateSchema_Idempotent(t *testing.T) {
	s, err := OpenSQL("sqlite", ":memory:")
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, CreateSchema(s.DB()))
}

func TestMemoryDraftCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryDraftCache(time.Hour)
	cache.now = func() time.Time { return now }

	draft := domain.NewQuoteDraft(domain.InsuranceTravel, now)
	draft.Merge(map[string]string{"destination": "europe"})
	draft.CurrentStepIndex = 2
	draft.HighestStepReached = 3
	require.NoError(t, cache.SaveDraft(ctx, draft))

	got, err := cache.LoadDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "europe", got.Field("destination"))
	assert.Equal(t, 2, got.CurrentStepIndex)
	assert.Equal(t, 3, got.HighestStepReached)

	now = now.Add(time.Hour)
	_, err = cache.LoadDraft(ctx, draft.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "entries expire after the ttl")

	require.NoError(t, cache.SaveDraft(ctx, draft))
	require.NoError(t, cache.DeleteDraft(ctx, draft.ID))
	_, err = cache.LoadDraft(ctx, draft.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewRedisDraftCache_BadURL(t *testing.T) {
	_, err := NewRedisDraftCache("not-a-url", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
	assert.Equal(t, "quotego:draft:abc", draftKey("abc"))
}
