package ingest

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"mobility-synth/models"
	"mobility-synth/utils"
)

// LocationHistoryReader streams location entries out of a location-history
// JSON export without loading the document. Both the {"locations": [...]}
// envelope and a bare top-level array are accepted.
//
// Entries come out on Out in document order. Out is closed when the document
// ends, the context is cancelled, or the JSON is malformed; Err reports which.
type LocationHistoryReader struct {
	src      io.Reader
	bufSize  int
	Out      chan *models.HistorySample
	produced uint64
	skipped  uint64
	err      error
}

func NewLocationHistoryReader(src io.Reader, buffer int) *LocationHistoryReader {
	if buffer <= 0 {
		buffer = 256
	}
	return &LocationHistoryReader{
		src:     src,
		bufSize: 64 * 1024,
		Out:     make(chan *models.HistorySample, buffer),
	}
}

func (r *LocationHistoryReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Info("location history reader started", zap.Int("buffer", cap(r.Out)))
}

func (r *LocationHistoryReader) run(ctx context.Context) {
	defer close(r.Out)

	iter := jsoniter.Parse(jsoniter.ConfigDefault, r.src, r.bufSize)

	switch iter.WhatIsNext() {
	case jsoniter.ArrayValue:
		r.readLocations(ctx, iter)
	case jsoniter.ObjectValue:
		for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
			if field != "locations" {
				iter.Skip()
				continue
			}
			if !r.readLocations(ctx, iter) {
				break
			}
		}
	default:
		iter.ReportError("read location history", "expected object or array at top level")
	}

	if iter.Error != nil && r.err == nil {
		if iter.Error == io.EOF {
			r.err = fmt.Errorf("parse location history: %w", io.ErrUnexpectedEOF)
		} else {
			r.err = fmt.Errorf("parse location history: %w", iter.Error)
		}
	}

	utils.L().Info("location history reader stopped",
		zap.Uint64("produced", atomic.LoadUint64(&r.produced)),
		zap.Uint64("skipped", atomic.LoadUint64(&r.skipped)))
}

// readLocations drains one locations array. It returns false when reading
// must stop early.
func (r *LocationHistoryReader) readLocations(ctx context.Context, iter *jsoniter.Iterator) bool {
	for iter.ReadArray() {
		s, ok := readLocation(iter)
		if iter.Error != nil {
			return false
		}
		if !ok {
			atomic.AddUint64(&r.skipped, 1)
			continue
		}
		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		case r.Out <- s:
			atomic.AddUint64(&r.produced, 1)
		}
	}
	return iter.Error == nil
}

// readLocation decodes one entry. ok is false for entries without a position.
func readLocation(iter *jsoniter.Iterator) (s *models.HistorySample, ok bool) {
	s = &models.HistorySample{}
	var haveLat, haveLon bool

	for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
		switch field {
		case "latitudeE7":
			s.Latitude = float64(iter.ReadInt64()) / 1e7
			haveLat = true
		case "longitudeE7":
			s.Longitude = float64(iter.ReadInt64()) / 1e7
			haveLon = true
		case "accuracy":
			s.Accuracy = models.Present(iter.ReadFloat64())
		case "timestampMs":
			s.TimestampMs = readMillis(iter)
		case "timestamp":
			if t, err := time.Parse(time.RFC3339Nano, iter.ReadString()); err == nil {
				s.TimestampMs = t.UnixMilli()
			}
		case "activity":
			readActivity(iter, s)
		default:
			iter.Skip()
		}
	}
	return s, haveLat && haveLon
}

// readMillis accepts both the quoted and the numeric form of timestampMs.
func readMillis(iter *jsoniter.Iterator) int64 {
	if iter.WhatIsNext() != jsoniter.StringValue {
		return iter.ReadInt64()
	}
	ms, err := strconv.ParseInt(iter.ReadString(), 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

// readActivity records, per channel, the confidence from the first activity
// snapshot that reports it.
func readActivity(iter *jsoniter.Iterator, s *models.HistorySample) {
	for iter.ReadArray() {
		for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
			if field != "activity" {
				iter.Skip()
				continue
			}
			for iter.ReadArray() {
				var typ string
				var conf float64
				var haveConf bool
				for f := iter.ReadObject(); f != ""; f = iter.ReadObject() {
					switch f {
					case "type":
						typ = iter.ReadString()
					case "confidence":
						conf = iter.ReadFloat64()
						haveConf = true
					default:
						iter.Skip()
					}
				}
				a, known := models.ParseActivity(typ)
				if !known || !haveConf || s.Activities[a].IsPresent() {
					continue
				}
				s.Activities[a] = models.Present(conf)
			}
		}
	}
}

// Err returns the reason Out was closed early, or nil after a clean read.
// Only valid once Out is closed.
func (r *LocationHistoryReader) Err() error { return r.err }

func (r *LocationHistoryReader) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&r.produced), atomic.LoadUint64(&r.skipped)
}
