package backends

import (
	"cmp"
	"math"
	"net/http"
	"slices"

	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/tables"
)

// Feed is one realtime series. Each poll returns the next scripted delta, or
// the delta produced by Next once the script is drained.
type Feed struct {
	Kind   models.ElementKind
	Script []models.SeriesDelta
	Next   func() models.SeriesDelta
}

func (b *Backend) AddFeed(id models.SeriesID, feed *Feed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feeds[id] = feed
}

// AddScriptedFeed adds a feed that replays deltas, then returns empty appends.
func (b *Backend) AddScriptedFeed(id models.SeriesID, kind models.ElementKind, deltas ...models.SeriesDelta) {
	b.AddFeed(id, &Feed{
		Kind:   kind,
		Script: deltas,
	})
}

// AddSyntheticFeed adds a feed moving around a circle, rows rows per poll, that
// resets after every resetEvery rows. resetEvery zero disables resets.
func (b *Backend) AddSyntheticFeed(id models.SeriesID, kind models.ElementKind, rows int, resetEvery int) {
	var t float64
	emitted := 0
	b.AddFeed(id, &Feed{
		Kind: kind,
		Next: func() models.SeriesDelta {
			delta := models.SeriesDelta{
				Command: models.Append,
			}
			if resetEvery > 0 && emitted >= resetEvery {
				delta.Command = models.Reset
				emitted = 0
			}
			delta.Rows = emptyRows(kind)
			for range rows {
				t += 0.1
				x, y := math.Cos(t), math.Sin(t)
				delta.Rows.Columns[0].Floats = append(delta.Rows.Columns[0].Floats, t)
				delta.Rows.Columns[1].Floats = append(delta.Rows.Columns[1].Floats, x)
				delta.Rows.Columns[2].Floats = append(delta.Rows.Columns[2].Floats, y)
				if kind == models.Pose {
					delta.Rows.Columns[3].Floats = append(delta.Rows.Columns[3].Floats, t+math.Pi/2)
				}
			}
			emitted += rows
			return delta
		},
	})
}

func emptyRows(kind models.ElementKind) tables.Table {
	specs, err := kind.Schema()
	if err != nil {
		return tables.Table{}
	}
	return tables.New(specs...)
}

func (b *Backend) poll(id models.SeriesID) (ret models.SeriesDelta, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	feed, ok := b.feeds[id]
	if !ok {
		return ret, notFound("series", id)
	}
	if len(feed.Script) > 0 {
		ret = feed.Script[0]
		feed.Script = feed.Script[1:]
		return ret, nil
	}
	if feed.Next != nil {
		return feed.Next(), nil
	}
	return models.SeriesDelta{
		Command: models.Append,
		Rows:    emptyRows(feed.Kind),
	}, nil
}

func (b *Backend) seriesList() []models.SeriesMetadata {
	b.mu.Lock()
	defer b.mu.Unlock()
	ret := make([]models.SeriesMetadata, 0, len(b.feeds))
	for id, feed := range b.feeds {
		ret = append(ret, models.SeriesMetadata{
			ID:   id,
			Kind: feed.Kind,
		})
	}
	slices.SortFunc(ret, func(x, y models.SeriesMetadata) int {
		return cmp.Compare(x.ID, y.ID)
	})
	return ret
}

func (b *Backend) handleSeriesList(w http.ResponseWriter, r *http.Request) {
	b.reply(w, r, b.seriesList())
}

func (b *Backend) handleSeriesPoll(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.SeriesRequest](w, r, b)
	if !ok {
		return
	}
	delta, err := b.poll(req.ID)
	if err != nil {
		b.failFor(w, r, err)
		return
	}
	b.reply(w, r, delta)
}
