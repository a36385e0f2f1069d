package ledger

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"resto-insights/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
	cacheDir     = ".cache"
)

// snapshot is the gob-cached form of a fully ingested fact file.
type snapshot struct {
	Orders       []models.OrderFact
	Lines        map[string][]models.OrderLineFact
	LastModified time.Time
	RecordCount  int64
}

// Store is a CSV-backed, in-memory implementation of Ledger. It stands in for
// the platform ledger in deployments and tests: the fact file is a flat
// order-line export, one row per line item with the order columns repeated.
type Store struct {
	mu               sync.RWMutex
	orders           []models.OrderFact
	lines            map[string][]models.OrderLineFact
	csvPath          string
	lastModified     time.Time
	recordsProcessed atomic.Int64
	logger           *slog.Logger
}

func NewStore() *Store {
	return &Store{
		lines:  make(map[string][]models.OrderLineFact),
		logger: slog.Default(),
	}
}

// SetData replaces the store contents. Test seam.
func (s *Store) SetData(orders []models.OrderFact, lines []models.OrderLineFact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = append([]models.OrderFact(nil), orders...)
	s.lines = make(map[string][]models.OrderLineFact)
	for _, l := range lines {
		s.lines[l.OrderID] = append(s.lines[l.OrderID], l)
	}
	s.lastModified = time.Now()
	s.recordsProcessed.Store(int64(len(lines)))
}

func (s *Store) LoadFromCSV(ctx context.Context, filename string) error {
	s.csvPath = filename

	if cached, err := s.loadFromCache(filename); err == nil {
		fileInfo, err := os.Stat(filename)
		if err == nil && fileInfo.ModTime().Before(cached.LastModified) {
			s.mu.Lock()
			s.orders = cached.Orders
			s.lines = cached.Lines
			s.lastModified = cached.LastModified
			s.mu.Unlock()
			s.recordsProcessed.Store(cached.RecordCount)
			s.logger.Info("loaded ledger facts from cache", "records", cached.RecordCount)
			return nil
		}
	}

	start := time.Now()
	s.logger.Info("processing ledger fact file", "filename", filename)

	if err := s.streamProcessCSV(ctx, filename); err != nil {
		return fmt.Errorf("process csv: %w", err)
	}

	if err := s.saveToCache(filename); err != nil {
		s.logger.Warn("failed to save ledger cache", "error", err)
	}

	duration := time.Since(start)
	count := s.recordsProcessed.Load()
	s.logger.Info("ledger ingest complete",
		"records", count,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(count)/duration.Seconds()))

	return nil
}

func (s *Store) streamProcessCSV(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB buffer

	// Skip header
	if !scanner.Scan() {
		return fmt.Errorf("empty file")
	}

	orderIndex := make(map[string]int)
	orders := make([]models.OrderFact, 0)
	lines := make(map[string][]models.OrderLineFact)

	var mu sync.Mutex
	recordCount := int64(0)

	batch := make([]string, 0, batchSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())

		if len(batch) >= batchSize {
			if err := s.processBatch(ctx, batch, &mu, orderIndex, &orders, lines, &recordCount); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.processBatch(ctx, batch, &mu, orderIndex, &orders, lines, &recordCount); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	if recordCount == 0 {
		return fmt.Errorf("no valid records found")
	}

	s.mu.Lock()
	s.orders = orders
	s.lines = lines
	s.lastModified = time.Now()
	s.mu.Unlock()

	s.recordsProcessed.Store(recordCount)
	return nil
}

type factRow struct {
	order models.OrderFact
	line  models.OrderLineFact
	valid bool
}

func (s *Store) processBatch(ctx context.Context, batch []string, mu *sync.Mutex,
	orderIndex map[string]int,
	orders *[]models.OrderFact,
	lines map[string][]models.OrderLineFact,
	recordCount *int64) error {

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	rowChan := make(chan factRow, len(batch))

	for _, raw := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			record := strings.Split(raw, ",")
			row, err := parseFactRowFast(record)
			if err != nil {
				rowChan <- factRow{valid: false}
				return nil // Skip invalid records
			}

			rowChan <- row
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		close(rowChan)
		return err
	}
	close(rowChan)

	// Accumulate sequentially to keep the order index race-free
	localOrders := make([]models.OrderFact, 0)
	localIndex := make(map[string]struct{})
	localLines := make(map[string][]models.OrderLineFact)
	localCount := int64(0)

	for row := range rowChan {
		if !row.valid {
			continue
		}
		if _, seen := localIndex[row.order.ID]; !seen {
			localIndex[row.order.ID] = struct{}{}
			localOrders = append(localOrders, row.order)
		}
		localLines[row.line.OrderID] = append(localLines[row.line.OrderID], row.line)
		localCount++
	}

	mu.Lock()
	for _, o := range localOrders {
		if _, exists := orderIndex[o.ID]; !exists {
			orderIndex[o.ID] = len(*orders)
			*orders = append(*orders, o)
		}
	}
	for id, ls := range localLines {
		lines[id] = append(lines[id], ls...)
	}
	*recordCount += localCount
	mu.Unlock()

	return nil
}

// Fact file columns:
//
//	0 order_id, 1 restaurant_id, 2 customer_id, 3 user_id, 4 ordered_at,
//	5 status, 6 payment_status, 7 order_total, 8 dish_id, 9 dish_name,
//	10 category_id, 11 category_name, 12 quantity, 13 unit_price, 14 line_total
//
// The waiter column is user_id on purpose: that is the key the platform
// actually writes for waiter orders.
func parseFactRowFast(record []string) (factRow, error) {
	if len(record) < 15 {
		return factRow{}, fmt.Errorf("insufficient columns")
	}

	orderedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(record[4]))
	if err != nil {
		return factRow{}, err
	}

	orderTotal, err := strconv.ParseFloat(strings.TrimSpace(record[7]), 64)
	if err != nil {
		return factRow{}, err
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(record[12]))
	if err != nil {
		return factRow{}, err
	}

	unitPrice, err := strconv.ParseFloat(strings.TrimSpace(record[13]), 64)
	if err != nil {
		return factRow{}, err
	}

	lineTotal, err := strconv.ParseFloat(strings.TrimSpace(record[14]), 64)
	if err != nil {
		return factRow{}, err
	}

	orderID := strings.TrimSpace(record[0])
	if orderID == "" {
		return factRow{}, fmt.Errorf("missing order id")
	}

	return factRow{
		order: models.OrderFact{
			ID:            orderID,
			RestaurantID:  strings.TrimSpace(record[1]),
			CustomerID:    strings.TrimSpace(record[2]),
			WaiterID:      strings.TrimSpace(record[3]),
			Timestamp:     orderedAt,
			Total:         orderTotal,
			Status:        strings.TrimSpace(record[5]),
			PaymentStatus: strings.TrimSpace(record[6]),
		},
		line: models.OrderLineFact{
			OrderID:      orderID,
			DishID:       strings.TrimSpace(record[8]),
			DishName:     strings.TrimSpace(record[9]),
			CategoryID:   strings.TrimSpace(record[10]),
			CategoryName: strings.TrimSpace(record[11]),
			Quantity:     quantity,
			UnitPrice:    unitPrice,
			LineTotal:    lineTotal,
		},
		valid: true,
	}, nil
}

// Orders implements Ledger. Only completed+paid facts are returned.
func (s *Store) Orders(ctx context.Context, restaurantID string, from, to time.Time) ([]models.OrderFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.OrderFact, 0)
	for _, o := range s.orders {
		if o.RestaurantID != restaurantID || !o.Eligible() {
			continue
		}
		if !from.IsZero() && o.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !o.Timestamp.Before(to) {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (s *Store) OrderLines(ctx context.Context, orderIDs []string) ([]models.OrderLineFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.OrderLineFact, 0)
	for _, id := range orderIDs {
		result = append(result, s.lines[id]...)
	}
	return result, nil
}

// Customers derives the customer set from eligible order facts; the store has
// no separate customer table.
func (s *Store) Customers(ctx context.Context, restaurantID string) ([]models.CustomerFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	result := make([]models.CustomerFact, 0)
	for _, o := range s.orders {
		if o.RestaurantID != restaurantID || !o.Eligible() || o.CustomerID == "" {
			continue
		}
		if _, ok := seen[o.CustomerID]; ok {
			continue
		}
		seen[o.CustomerID] = struct{}{}
		result = append(result, models.CustomerFact{CustomerID: o.CustomerID, RestaurantID: restaurantID})
	}
	return result, nil
}

// Cache management
func (s *Store) getCacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func (s *Store) saveToCache(csvPath string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	filename := s.getCacheFilename(csvPath)
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	encoder := gob.NewEncoder(file)
	return encoder.Encode(snapshot{
		Orders:       s.orders,
		Lines:        s.lines,
		LastModified: s.lastModified,
		RecordCount:  s.recordsProcessed.Load(),
	})
}

func (s *Store) loadFromCache(csvPath string) (*snapshot, error) {
	filename := s.getCacheFilename(csvPath)
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data snapshot
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return nil, err
	}

	return &data, nil
}

// Stats reports ingest counters for the admin endpoint.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lineCount := 0
	for _, ls := range s.lines {
		lineCount += len(ls)
	}

	return map[string]any{
		"record_count": s.recordsProcessed.Load(),
		"last_ingest":  s.lastModified,
		"orders":       len(s.orders),
		"order_lines":  lineCount,
	}
}
