package pipeline

import (
	"context"
	"math"
	"time"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/storage"
)

// fixtureStart anchors the synthetic calendar. The range is long enough
// for the 252-day z-score window to leave its warm-up period.
var fixtureStart = domain.MustDate("2024-01-01")

const fixtureDays = 540

// LoadFixtures populates the source tables with deterministic synthetic
// data so the pipeline runs end to end without external collectors. Values
// follow smooth cycles around realistic levels (billions of dollars for
// balances, percent for rates); weekends are skipped, and the balance
// sheet only publishes on Wednesdays, so the forward-fill paths are
// exercised exactly as with real data.
func LoadFixtures(ctx context.Context, store storage.TableStore) error {
	var fiscal, fed, repo, fails []domain.Row

	for i := 0; i < fixtureDays; i++ {
		d := fixtureStart.AddDays(i)
		if !d.IsBusinessDay() {
			continue
		}
		t := float64(i)

		fr := domain.NewRow(d)
		fr.Set(ColMA20Impulse, domain.Float(12.0+6.0*math.Sin(t/45)))
		fr.Set(ColTGABalance, domain.Float(720.0+90.0*math.Sin(t/60)))
		fr.Set(ColWithheldTax, domain.Float(11.5+2.5*math.Sin(t/30)))
		fr.Set(ColHouseholdSpending, domain.Float(7.2+0.8*math.Sin(t/25)))
		fr.Set(ColTotalSpending, domain.Float(26.0+2.0*math.Sin(t/40)))
		fiscal = append(fiscal, fr)

		md := domain.NewRow(d)
		if d.Weekday() == time.Wednesday {
			md.Set(ColTotalAssets, domain.Float(7450.0-0.45*t))
		}
		md.Set(ColRRPBalance, domain.Float(480.0-0.6*t+35.0*math.Sin(t/20)))
		md.Set(ColFedTGA, domain.Float(720.0+90.0*math.Sin(t/60)))
		md.Set(ColSOFR, domain.Float(5.31+0.03*math.Sin(t/15)))
		md.Set(ColIORB, domain.Float(5.30))
		fed = append(fed, md)

		rr := domain.NewRow(d)
		rr.Set(ColSubmissionRatio, domain.Float(0.12+0.08*math.Sin(t/35)))
		repo = append(repo, rr)

		sf := domain.NewRow(d)
		sf.Set(ColTotalFails, domain.Float(58.0+22.0*math.Sin(t/50)))
		fails = append(fails, sf)
	}

	for name, rows := range map[string][]domain.Row{
		TableFiscal: fiscal,
		TableFed:    fed,
		TableRepo:   repo,
		TableFails:  fails,
	} {
		if err := store.Upsert(ctx, name, rows); err != nil {
			return err
		}
	}
	return nil
}
