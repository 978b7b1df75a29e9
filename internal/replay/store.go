package replay

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/log"
)

// Store keeps recorded frames per chart in sqlite.
type Store struct {
	db *sql.DB
}

// History is one stored frame.
type History struct {
	ID      int64
	Sum     string
	Created time.Time
	Frame   Frame
}

func (h History) Score() int {
	if h.Frame.Stats == nil {
		return 0
	}
	return h.Frame.Stats.BaseStats().TotalScore()
}

const initStatement = `
create table if not exists frames
  (
	  id integer not null primary key,
	  sum text not null,
	  created integer not null,
	  player text,
	  mode text,
	  score integer,
	  profile blob,
	  parameters blob,
	  stats blob,
	  inputs blob
  );
create index if not exists frames_sum on frames(sum);
`

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, err
	}
	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("unable to create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// HashChart identifies a chart by its notes and tempo map.
func HashChart(c *game.Chart) (string, error) {
	data, err := json.Marshal(struct {
		SyncTrack *game.SyncTrack
		Tracks    []*game.Track
		Coda      *game.CodaRegion
	}{c.SyncTrack, c.Tracks, c.Coda})
	if nil != err {
		return "", err
	}
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// Save stores every frame of a replay under its chart.
func (s *Store) Save(r *Replay) error {
	sum, err := HashChart(r.Chart)
	if nil != err {
		return fmt.Errorf("unable to hash chart: %w", err)
	}
	for i, f := range r.Frames {
		if err := s.saveFrame(sum, f); nil != err {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) saveFrame(sum string, f Frame) error {
	profile, err := json.Marshal(f.Profile)
	if nil != err {
		return err
	}
	params, err := json.Marshal(f.Parameters)
	if nil != err {
		return err
	}
	stats, err := json.Marshal(f.Stats)
	if nil != err {
		return err
	}
	inputs, err := json.Marshal(compactInputs(f.Inputs))
	if nil != err {
		return err
	}
	score := 0
	if f.Stats != nil {
		score = f.Stats.BaseStats().TotalScore()
	}
	_, err = s.db.Exec(
		"insert into frames(sum, created, player, mode, score, profile, parameters, stats, inputs) values(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		sum, time.Now().Unix(), f.Profile.Name, f.Profile.Mode.String(), score, profile, params, stats, inputs,
	)
	if nil != err {
		return fmt.Errorf("unable to save frame: %w", err)
	}
	return nil
}

// Load returns the stored frames of a chart, best score first. Rows that no
// longer decode are skipped.
func (s *Store) Load(c *game.Chart) ([]History, error) {
	sum, err := HashChart(c)
	if nil != err {
		return nil, fmt.Errorf("unable to hash chart: %w", err)
	}
	histories := []History{}
	rows, err := s.db.Query(
		"select id, sum, created, profile, parameters, stats, inputs from frames where sum = ? order by score desc, id", sum)
	if errors.Is(err, sql.ErrNoRows) {
		return histories, nil
	}
	if nil != err {
		return nil, fmt.Errorf("unable to load frames: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			h                                 History
			created                           int64
			profile, params, stats, inputs []byte
		)
		if err := rows.Scan(&h.ID, &h.Sum, &created, &profile, &params, &stats, &inputs); nil != err {
			return nil, err
		}
		h.Created = time.Unix(created, 0)
		if err := h.decode(profile, params, stats, inputs); nil != err {
			log.Logger.Warn("unable to decode stored frame", zap.Int64("id", h.ID), zap.Error(err))
			continue
		}
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

func (h *History) decode(profile, params, stats, inputs []byte) error {
	if err := json.Unmarshal(profile, &h.Frame.Profile); nil != err {
		return err
	}
	if err := json.Unmarshal(params, &h.Frame.Parameters); nil != err {
		return err
	}
	snapshot, err := decodeStats(h.Frame.Profile.Mode, stats)
	if nil != err {
		return err
	}
	h.Frame.Stats = snapshot
	var compact []InputsCompact
	if err := json.Unmarshal(inputs, &compact); nil != err {
		return err
	}
	h.Frame.Inputs = uncompactInputs(compact)
	return nil
}

// Replay rebuilds a verifiable single player replay from a stored frame.
func (h History) Replay(c *game.Chart) *Replay {
	return &Replay{
		Name:   fmt.Sprintf("%s #%d", h.Frame.Profile.Name, h.ID),
		Chart:  c,
		Frames: []Frame{h.Frame},
	}
}
