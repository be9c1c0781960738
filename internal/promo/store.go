package promo

import (
	"compress/gzip"
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

var (
	ErrNotFound  = errors.New("promo code not found")
	ErrInactive  = errors.New("promo code is inactive")
	ErrExpired   = errors.New("promo code has expired")
	ErrExhausted = errors.New("promo code usage limit reached")
	ErrNoSources = errors.New("no promo sources provided")
	ErrDuplicate = errors.New("promo code already exists")
	ErrInvalid   = errors.New("invalid promo definition")
)

// falsePositiveRate sizes the negative-lookup filter
const falsePositiveRate = 0.01

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// Store holds promo definitions loaded from one or more sources
type Store struct {
	mu      sync.RWMutex
	promos  map[string]*models.Promo
	filter  *bloom.BloomFilter
	sources []sourceInfo
	now     func() time.Time
}

type sourceInfo struct {
	name  string
	count int
}

// sourceLoadResult holds the result of loading a single source
type sourceLoadResult struct {
	index  int
	promos []models.Promo
	err    error
}

// NewStore creates an empty promo store
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.replace(nil, nil)
	return s
}

// DefaultPromos is the seed used when no promo sources are configured
func DefaultPromos() []models.Promo {
	return []models.Promo{
		{Code: "FIESTA10", DiscountPercent: 10, IsActive: true},
		{Code: "WELCOME15", DiscountPercent: 15, UsageLimit: 100, IsActive: true},
		{Code: "LAVASH20", DiscountPercent: 20, UsageLimit: 50, IsActive: true},
	}
}

// Seed replaces the loaded promos with the given definitions
func (s *Store) Seed(promos []models.Promo) {
	s.replace(promos, []sourceInfo{{name: "seed", count: len(promos)}})
}

// Load reads promo definitions from files or http(s) URLs concurrently and
// replaces the current set. Sources ending in .gz are decompressed. When a
// code appears in several sources the later source wins. Returns an error
// if any source fails to load.
func (s *Store) Load(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		return ErrNoSources
	}

	resultChan := make(chan sourceLoadResult, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()

			promos, err := loadSource(ctx, source)
			resultChan <- sourceLoadResult{
				index:  index,
				promos: promos,
				err:    err,
			}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining order
	results := make([]sourceLoadResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	var all []models.Promo
	infos := make([]sourceInfo, len(results))
	for i, result := range results {
		if result.err != nil {
			return fmt.Errorf("failed to load promo source %s: %w", sources[i], result.err)
		}
		all = append(all, result.promos...)
		infos[i] = sourceInfo{name: sources[i], count: len(result.promos)}
	}

	s.replace(all, infos)
	return nil
}

func (s *Store) replace(promos []models.Promo, infos []sourceInfo) {
	byCode := make(map[string]*models.Promo, len(promos))
	for i := range promos {
		p := promos[i]
		p.Code = normalize(p.Code)
		byCode[p.Code] = &p
	}

	filter := bloom.NewWithEstimates(uint(len(byCode)+1), falsePositiveRate)
	for code := range byCode {
		filter.AddString(code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos = byCode
	s.filter = filter
	s.sources = infos
}

func loadSource(ctx context.Context, source string) ([]models.Promo, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		rc, err = openURL(ctx, source)
	} else {
		rc, err = os.Open(source)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := io.Reader(rc)
	if strings.HasSuffix(source, ".gz") {
		gzReader, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	return parsePromos(r)
}

func openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parsePromos reads CODE,percent[,expires_at][,usage_limit] records.
// Blank lines and lines starting with # are skipped.
func parsePromos(r io.Reader) ([]models.Promo, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var promos []models.Promo
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading file: %w", err)
		}

		p, err := ParseRecord(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		promos = append(promos, p)
	}
	return promos, nil
}

// ParseRecord builds a promo from its CSV fields. expires_at accepts
// RFC 3339 or a plain date; an empty usage_limit or 0 means unlimited.
func ParseRecord(fields []string) (models.Promo, error) {
	if len(fields) < 2 || len(fields) > 4 {
		return models.Promo{}, fmt.Errorf("expected 2 to 4 fields, got %d", len(fields))
	}

	p := models.Promo{Code: normalize(fields[0]), IsActive: true}
	if p.Code == "" {
		return models.Promo{}, errors.New("empty promo code")
	}

	pct, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil || pct <= 0 || pct > 100 {
		return models.Promo{}, fmt.Errorf("invalid discount percent %q", fields[1])
	}
	p.DiscountPercent = pct

	if len(fields) > 2 {
		if raw := strings.TrimSpace(fields[2]); raw != "" {
			expires, err := parseTime(raw)
			if err != nil {
				return models.Promo{}, fmt.Errorf("invalid expires_at %q", raw)
			}
			p.ExpiresAt = &expires
		}
	}

	if len(fields) > 3 {
		if raw := strings.TrimSpace(fields[3]); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				return models.Promo{}, fmt.Errorf("invalid usage_limit %q", raw)
			}
			p.UsageLimit = limit
		}
	}

	return p, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks that code exists and is currently usable
func (s *Store) Validate(ctx context.Context, code string) (models.PromoResult, error) {
	code = normalize(code)

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.lookup(code)
	if err != nil {
		return models.PromoResult{}, err
	}
	return models.PromoResult{Code: p.Code, DiscountPercent: p.DiscountPercent}, nil
}

// Redeem validates code and records one use
func (s *Store) Redeem(ctx context.Context, code string) (models.PromoResult, error) {
	code = normalize(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(code)
	if err != nil {
		return models.PromoResult{}, err
	}
	p.UsedCount++
	return models.PromoResult{Code: p.Code, DiscountPercent: p.DiscountPercent}, nil
}

// Create adds a single promo. A blank code is replaced by a generated one.
// The new promo is active and unused.
func (s *Store) Create(ctx context.Context, p models.Promo) (models.Promo, error) {
	p.Code = normalize(p.Code)
	p.UsedCount = 0
	p.IsActive = true

	switch {
	case math.IsNaN(p.DiscountPercent) || p.DiscountPercent <= 0 || p.DiscountPercent > 100:
		return models.Promo{}, fmt.Errorf("%w: discount percent %v", ErrInvalid, p.DiscountPercent)
	case p.UsageLimit < 0:
		return models.Promo{}, fmt.Errorf("%w: usage limit %d", ErrInvalid, p.UsageLimit)
	case p.Code != "" && strings.ContainsAny(p.Code, ", #"):
		return models.Promo{}, fmt.Errorf("%w: code %q", ErrInvalid, p.Code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Code == "" {
		code, err := s.uniqueCode()
		if err != nil {
			return models.Promo{}, err
		}
		p.Code = code
	} else if _, exists := s.promos[p.Code]; exists {
		return models.Promo{}, ErrDuplicate
	}

	stored := p
	s.promos[p.Code] = &stored
	s.filter.AddString(p.Code)
	return p, nil
}

// uniqueCode must be called with s.mu held
func (s *Store) uniqueCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		if _, exists := s.promos[code]; !exists {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique promo code")
}

// GenerateCode returns a random upper-case alphanumeric promo code
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate promo code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// List returns every promo ordered by code
func (s *Store) List() []models.Promo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Promo, 0, len(s.promos))
	for _, p := range s.promos {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// lookup must be called with s.mu held
func (s *Store) lookup(code string) (*models.Promo, error) {
	if code == "" || !s.filter.TestString(code) {
		return nil, ErrNotFound
	}

	p, ok := s.promos[code]
	if !ok {
		return nil, ErrNotFound
	}
	if err := usable(p, s.now()); err != nil {
		return nil, err
	}
	return p, nil
}

func usable(p *models.Promo, now time.Time) error {
	switch {
	case !p.IsActive:
		return ErrInactive
	case p.ExpiresAt != nil && p.ExpiresAt.Before(now):
		return ErrExpired
	case p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit:
		return ErrExhausted
	}
	return nil
}

// GetStats returns statistics about loaded promos
func (s *Store) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["total_sources"] = len(s.sources)

	sourceSizes := make([]int, len(s.sources))
	for i, src := range s.sources {
		sourceSizes[i] = src.count
	}
	stats["source_sizes"] = sourceSizes
	stats["total_promos"] = len(s.promos)

	now := s.now()
	available, redeemed := 0, 0
	for _, p := range s.promos {
		redeemed += p.UsedCount
		if usable(p, now) == nil {
			available++
		}
	}
	stats["usable_promos"] = available
	stats["total_redemptions"] = redeemed

	return stats
}
