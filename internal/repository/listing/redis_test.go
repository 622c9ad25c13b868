package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/roosthq/roost/internal/domain"
)

func scanResult(cursor int64, keys ...string) rueidis.RedisResult {
	elems := make([]rueidis.RedisMessage, len(keys))
	for i, k := range keys {
		elems[i] = mock.RedisString(k)
	}
	return mock.Result(mock.RedisArray(
		mock.RedisInt64(cursor),
		mock.RedisArray(elems...),
	))
}

func TestFetchAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && cmd[3] == "roost:listing:*"
		})).
		Return(scanResult(0, "roost:listing:l2", "roost:listing:l1", "roost:listing:bad"))

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "roost:listing:bad")).
		Return(mock.Result(mock.RedisString("{not json")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "roost:listing:l1")).
		Return(mock.Result(mock.RedisString(`{"id":"l1","title":"Loft","price_per_night":80,"guest_capacity":2,"rating":4.5,"review_count":12}`)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "roost:listing:l2")).
		Return(mock.Result(mock.RedisString(`{"id":"l2","title":"Studio","price_per_night":55,"guest_capacity":1}`)))

	s := NewStoreForTest(c, "roost:listing:")
	records, undecodable, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if undecodable != 1 {
		t.Errorf("undecodable = %d, want 1", undecodable)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Keys are sorted before fetching, so record order is deterministic.
	if records[0].ID != "l1" || records[1].ID != "l2" {
		t.Errorf("record order = [%s %s], want [l1 l2]", records[0].ID, records[1].ID)
	}
	if records[0].Rating == nil || *records[0].Rating != 4.5 {
		t.Errorf("l1 rating not decoded: %v", records[0].Rating)
	}
	if records[1].Rating != nil {
		t.Errorf("l2 rating = %v, want nil", *records[1].Rating)
	}
}

func TestFetchAllMultiPageScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return scanResult(7, "roost:listing:l1")
			}
			return scanResult(0, "roost:listing:l2")
		}).Times(2)

	for _, id := range []string{"l1", "l2"} {
		c.EXPECT().
			Do(gomock.Any(), mock.Match("GET", "roost:listing:"+id)).
			Return(mock.Result(mock.RedisString(`{"id":"` + id + `","title":"t","price_per_night":50,"guest_capacity":2}`)))
	}

	s := NewStoreForTest(c, "roost:listing:")
	records, _, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestFetchAllSkipsExpiredKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(scanResult(0, "roost:listing:gone"))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "roost:listing:gone")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c, "roost:listing:")
	records, undecodable, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 0 || undecodable != 0 {
		t.Errorf("records = %d, undecodable = %d, want 0 and 0", len(records), undecodable)
	}
}

func TestFetchAllScanError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(mock.ErrorResult(errors.New("connection refused")))

	s := NewStoreForTest(c, "roost:listing:")
	_, _, err := s.FetchAll(context.Background())
	if !errors.Is(err, domain.ErrCorpusLoad) {
		t.Fatalf("error = %v, want ErrCorpusLoad", err)
	}
}

func TestPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, "roost:listing:")
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
