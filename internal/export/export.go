package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/i18n"
	"github.com/bozorplus/bozoradmin/pkg/metrics"
)

// Row is one exported line: an order flattened to one row per line
// item. Orders without items still produce a single summary row so no
// order silently vanishes from the report.
type Row struct {
	OrderNumber  string  `csv:"order_number"`
	Customer     string  `csv:"customer"`
	OrderDate    string  `csv:"order_date"`
	Status       string  `csv:"status"`
	ProductCode  string  `csv:"product_code"`
	ProductName  string  `csv:"product_name"`
	Quantity     int     `csv:"quantity"`
	Unit         string  `csv:"unit"`
	CatalogPrice float64 `csv:"catalog_price"`
	LinePrice    float64 `csv:"line_price"`
}

var headers = []string{
	"Order Number", "Customer", "Order Date", "Status",
	"Product Code", "Product Name", "Quantity", "Unit",
	"Catalog Price", "Line Price",
}

// Service writes order exports to a working directory. Per-customer
// files are written concurrently on a bounded pool.
type Service struct {
	dir    string
	pool   *ants.Pool
	locale func() string
}

// Option customizes a Service
type Option func(*Service)

// WithLocale sets the supplier of the active dashboard locale, which
// drives the order date format inside the exported rows.
func WithLocale(fn func() string) Option {
	return func(s *Service) { s.locale = fn }
}

// NewService creates an export service writing under dir
func NewService(dir string, workers int, opts ...Option) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create export dir")
	}
	if workers < 1 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create export pool")
	}
	s := &Service{dir: dir, pool: pool, locale: func() string { return "" }}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the export working directory
func (s *Service) Dir() string { return s.dir }

// Release stops the worker pool
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Flatten expands orders into export rows, one per line item,
// preserving order sequence. Dates come out ISO formatted; the
// service methods localize them through the active locale.
func Flatten(orders []domain.Order) []Row {
	return flattenRows(orders, "2006-01-02")
}

// dateLayout maps a dashboard locale to its order date layout
func dateLayout(code string) string {
	switch code {
	case i18n.LocaleRU:
		return "02.01.2006"
	case i18n.LocaleUZ:
		return "02/01/2006"
	default:
		return "2006-01-02"
	}
}

func (s *Service) rows(orders []domain.Order) []Row {
	return flattenRows(orders, dateLayout(s.locale()))
}

func flattenRows(orders []domain.Order, layout string) []Row {
	rows := make([]Row, 0, len(orders))
	for _, o := range orders {
		base := Row{
			OrderNumber: o.Number,
			Customer:    o.CustomerName,
			OrderDate:   o.CreatedAt.Format(layout),
			Status:      o.Status,
		}
		if len(o.Items) == 0 {
			r := base
			r.LinePrice = o.Amount
			rows = append(rows, r)
			continue
		}
		for _, it := range o.Items {
			r := base
			r.ProductCode = it.ProductCode
			r.ProductName = it.ProductName
			r.Quantity = it.Quantity
			r.Unit = it.UnitName
			r.CatalogPrice = it.CatalogPrice
			r.LinePrice = it.LineTotal()
			rows = append(rows, r)
		}
	}
	return rows
}

// FilterByDate keeps orders created within [from, to]. Empty bounds
// are open; bounds accept any parseable date format.
func FilterByDate(orders []domain.Order, from, to string) ([]domain.Order, error) {
	var lo, hi time.Time
	var err error
	if from != "" {
		if lo, err = dateparse.ParseAny(from); err != nil {
			return nil, errors.Wrapf(err, "parse from date %q", from)
		}
	}
	if to != "" {
		if hi, err = dateparse.ParseAny(to); err != nil {
			return nil, errors.Wrapf(err, "parse to date %q", to)
		}
		// inclusive upper bound on a bare date
		hi = hi.Add(24*time.Hour - time.Nanosecond)
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !lo.IsZero() && o.CreatedAt.Before(lo) {
			continue
		}
		if !hi.IsZero() && o.CreatedAt.After(hi) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// ExportGrouped writes one workbook per customer, named
// "<Customer>_<stamp>.xlsx". The stamp is derived from the active
// date filter so repeated exports of the same filtered set produce
// identically-named files; only an unfiltered export stamps the
// current date. An empty order set writes nothing and returns no
// paths. Returned paths are sorted for determinism.
func (s *Service) ExportGrouped(ctx context.Context, orders []domain.Order, from, to string) ([]string, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	stamp, err := exportStamp(from, to)
	if err != nil {
		return nil, err
	}

	byCustomer := map[string][]domain.Order{}
	for _, o := range orders {
		byCustomer[o.CustomerName] = append(byCustomer[o.CustomerName], o)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths []string
		first error
	)
	for customer, group := range byCustomer {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		customer, group := customer, group
		name := fmt.Sprintf("%s_%s.xlsx", sanitize(customer), stamp)
		path := filepath.Join(s.dir, name)

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if err := writeXLSX(path, s.rows(group)); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
				zap.L().Error("customer export failed",
					zap.String("customer", customer),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			return nil, errors.Wrap(err, "submit export task")
		}
	}
	wg.Wait()

	if first != nil {
		return nil, first
	}
	sort.Strings(paths)
	metrics.RecordExport(len(paths))
	zap.L().Info("grouped export complete",
		zap.Int("orders", len(orders)),
		zap.Int("files", len(paths)),
	)
	return paths, nil
}

// ExportSelection writes the given orders into a single workbook and
// returns its path. An empty selection writes nothing.
func (s *Service) ExportSelection(ctx context.Context, orders []domain.Order, name string) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" {
		name = fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	}
	path := filepath.Join(s.dir, name)
	if err := writeXLSX(path, s.rows(orders)); err != nil {
		return "", err
	}
	metrics.RecordExport(1)
	return path, nil
}

// ExportCSV writes the given orders as a single CSV file
func (s *Service) ExportCSV(ctx context.Context, orders []domain.Order, name string) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" {
		name = fmt.Sprintf("orders_%s.csv", time.Now().Format("2006-01-02_150405"))
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create csv file")
	}
	defer f.Close()

	rows := s.rows(orders)
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return "", errors.Wrap(err, "write csv")
	}
	metrics.RecordExport(1)
	return path, nil
}

// exportStamp builds the file name stamp from the date filter bounds.
// Identical filters always yield identical stamps; with no filter the
// stamp is the current date.
func exportStamp(from, to string) (string, error) {
	format := func(v string) (string, error) {
		ts, err := dateparse.ParseAny(v)
		if err != nil {
			return "", errors.Wrapf(err, "parse filter date %q", v)
		}
		return ts.Format("2006-01-02"), nil
	}
	switch {
	case from == "" && to == "":
		return time.Now().Format("2006-01-02"), nil
	case to == "":
		return format(from)
	case from == "":
		return format(to)
	}
	lo, err := format(from)
	if err != nil {
		return "", err
	}
	hi, err := format(to)
	if err != nil {
		return "", err
	}
	if lo == hi {
		return lo, nil
	}
	return lo + "_" + hi, nil
}

// Prune removes export files older than keep. Used by the cleanup job.
func (s *Service) Prune(keep time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().Add(-keep)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
			removed++
		}
	}
	if removed > 0 {
		zap.L().Info("pruned old exports", zap.Int("removed", removed))
	}
	return removed
}

func writeXLSX(path string, rows []Row) error {
	xlsx := excelize.NewFile()
	sheet := "Sheet1"
	for col, h := range headers {
		xlsx.SetCellValue(sheet, excelize.ToAlphaString(col)+"1", h)
	}
	for i, r := range rows {
		cells := []interface{}{
			r.OrderNumber, r.Customer, r.OrderDate, r.Status,
			r.ProductCode, r.ProductName, r.Quantity, r.Unit,
			r.CatalogPrice, r.LinePrice,
		}
		axisRow := fmt.Sprintf("%d", i+2)
		for col, v := range cells {
			xlsx.SetCellValue(sheet, excelize.ToAlphaString(col)+axisRow, v)
		}
	}
	if err := xlsx.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

// sanitize makes a customer name safe as a file name component
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	repl := strings.NewReplacer(
		" ", "_", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return repl.Replace(name)
}
