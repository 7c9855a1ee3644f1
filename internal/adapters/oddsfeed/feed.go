package oddsfeed

// feed.go — adaptador de ports.OddsFeed sobre The Odds API v4.
//
// El proveedor publica eventos por deporte y, por evento, las cuotas de cada
// bookmaker agrupadas por mercado. Aquí se traduce ese formato al vocabulario
// del dominio: h2h → result, totals 2.5 → over_25, btts → btts y los totales
// de corners alternativos a las líneas 9.5 y 10.5.

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

const quoteMarkets = "h2h,totals,btts,alternate_totals_corners"

// apiEvent es un evento próximo anunciado por el proveedor.
type apiEvent struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

// apiEventOdds son las cuotas publicadas para un evento concreto.
type apiEventOdds struct {
	apiEvent
	Bookmakers []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Point float64 `json:"point,omitempty"`
}

// Feed implementa ports.OddsFeed contra The Odds API.
type Feed struct {
	client *client
	sport  string
	region string
}

// NewFeed crea el feed a partir de la configuración de cuotas.
func NewFeed(cfg config.Odds) *Feed {
	return &Feed{
		client: newClient(cfg.BaseURL, cfg.APIKey,
			time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.RatePerSecond),
		sport:  cfg.Sport,
		region: cfg.Regions,
	}
}

// Fixtures devuelve los próximos partidos anunciados por el proveedor.
func (f *Feed) Fixtures(ctx context.Context) ([]domain.MatchContext, error) {
	endpoint := fmt.Sprintf("%s/v4/sports/%s/events?%s",
		f.client.baseURL, f.sport, f.query(nil))

	var events []apiEvent
	if err := f.client.get(ctx, endpoint, &events); err != nil {
		return nil, fmt.Errorf("oddsfeed.Fixtures: %w", err)
	}

	fixtures := make([]domain.MatchContext, 0, len(events))
	for _, ev := range events {
		fixtures = append(fixtures, domain.MatchContext{
			MatchID:     ev.ID,
			Competition: ev.SportKey,
			Season:      seasonOf(ev.CommenceTime),
			HomeTeam:    ev.HomeTeam,
			AwayTeam:    ev.AwayTeam,
			KickOff:     ev.CommenceTime,
		})
	}
	return fixtures, nil
}

// Quotes devuelve todas las cuotas publicadas para el partido dado.
// Devuelve domain.ErrNoQuotes si ningún bookmaker publica nada mapeable.
func (f *Feed) Quotes(ctx context.Context, matchID string) ([]domain.OddsQuote, error) {
	endpoint := fmt.Sprintf("%s/v4/sports/%s/events/%s/odds?%s",
		f.client.baseURL, f.sport, url.PathEscape(matchID),
		f.query(map[string]string{"markets": quoteMarkets, "oddsFormat": "decimal"}))

	var odds apiEventOdds
	if err := f.client.get(ctx, endpoint, &odds); err != nil {
		return nil, fmt.Errorf("oddsfeed.Quotes %s: %w", matchID, err)
	}

	var quotes []domain.OddsQuote
	for _, bk := range odds.Bookmakers {
		for _, mk := range bk.Markets {
			for _, out := range mk.Outcomes {
				market, outcome, ok := mapOutcome(mk.Key, out, odds.HomeTeam, odds.AwayTeam)
				if !ok {
					continue
				}
				if out.Price <= 1 {
					slog.Debug("cuota inválida descartada",
						"match", matchID, "bookmaker", bk.Key, "market", mk.Key, "price", out.Price)
					continue
				}
				quotes = append(quotes, domain.OddsQuote{
					MatchID:   matchID,
					Bookmaker: bk.Key,
					Market:    market,
					Outcome:   outcome,
					Decimal:   out.Price,
					Timestamp: bk.LastUpdate,
				})
			}
		}
	}
	if len(quotes) == 0 {
		return nil, domain.ErrNoQuotes
	}
	return quotes, nil
}

// query construye la query string común (apiKey + regions) más extras.
func (f *Feed) query(extra map[string]string) string {
	q := url.Values{}
	q.Set("apiKey", f.client.apiKey)
	q.Set("regions", f.region)
	for k, v := range extra {
		q.Set(k, v)
	}
	return q.Encode()
}

// mapOutcome traduce un outcome del proveedor a (mercado, outcome) del dominio.
// Los mercados que no modelamos se ignoran sin ruido.
func mapOutcome(marketKey string, out apiOutcome, home, away string) (domain.Market, domain.Outcome, bool) {
	switch marketKey {
	case "h2h":
		switch {
		case strings.EqualFold(out.Name, home):
			return domain.MarketResult, domain.OutcomeHome, true
		case strings.EqualFold(out.Name, away):
			return domain.MarketResult, domain.OutcomeAway, true
		case strings.EqualFold(out.Name, "Draw"):
			return domain.MarketResult, domain.OutcomeDraw, true
		}
	case "totals":
		if out.Point != 2.5 {
			return "", "", false
		}
		return domain.MarketOver25, yesNo(out.Name, "Over"), true
	case "btts":
		return domain.MarketBTTS, yesNo(out.Name, "Yes"), true
	case "alternate_totals_corners":
		switch out.Point {
		case 9.5:
			return domain.MarketOver95Corners, yesNo(out.Name, "Over"), true
		case 10.5:
			return domain.MarketOver105Corners, yesNo(out.Name, "Over"), true
		}
	}
	return "", "", false
}

func yesNo(name, yesLabel string) domain.Outcome {
	if strings.EqualFold(name, yesLabel) {
		return domain.OutcomeYes
	}
	return domain.OutcomeNo
}

// seasonOf deriva la temporada de la fecha: la 2025/26 empieza en julio de 2025.
func seasonOf(t time.Time) int {
	if t.Month() >= time.July {
		return t.Year()
	}
	return t.Year() - 1
}
