package export_test

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sync"

	"go.uber.org/mock/gomock"

	"github.com/stacklok/catalog-exporter/internal/export"
	"github.com/stacklok/catalog-exporter/internal/export/mocks"
)

// memorySink keeps appended records in memory and remembers segment sizes
type memorySink struct {
	mu       sync.Mutex
	files    map[string][][]string
	segments map[string][]int
}

func newMemorySink() *memorySink {
	return &memorySink{
		files:    map[string][][]string{},
		segments: map[string][]int{},
	}
}

func (s *memorySink) Append(fileName string, records [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[fileName]; !ok {
		s.files[fileName] = [][]string{}
	}
	for _, r := range records {
		s.files[fileName] = append(s.files[fileName], slices.Clone(r))
	}
	if len(records) > 0 {
		s.segments[fileName] = append(s.segments[fileName], len(records))
	}
	return nil
}

func (*memorySink) Path(fileName string) string {
	return path.Join("/out", fileName)
}

func makeRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("%d", i+1), fmt.Sprintf("item-%d", i+1)}
	}
	return rows
}

// sliceSource serves pages of rows and records every request it receives
func sliceSource(ctrl *gomock.Controller, columns []string, rows [][]string, requests *[]export.PageRequest) *mocks.MockSource {
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().FetchPage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req export.PageRequest) (*export.Page, error) {
			if requests != nil {
				*requests = append(*requests, req)
			}
			start := min(req.Offset, len(rows))
			end := min(req.Offset+req.Limit, len(rows))
			page := make([][]string, 0, end-start)
			for _, r := range rows[start:end] {
				page = append(page, slices.Clone(r))
			}
			return &export.Page{Columns: columns, Rows: page}, nil
		}).AnyTimes()
	return src
}
