package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/client"
	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/client/scan"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

// ErrScanTimeout is returned when no QR code was found in time.
var ErrScanTimeout = errors.New("scan timed out")

type StudentService interface {
	RecordAttendance(ctx context.Context, payload string) (*models.RecordResult, error)
	History(ctx context.Context) ([]models.AttendanceRecord, error)
	Scan(ctx context.Context, camera scan.Camera) (*ScanResult, error)
}

// ScanResult describes a completed scan and the attendance it recorded.
type ScanResult struct {
	Payload   string
	SessionID string
	Record    *models.RecordResult
}

type studentService struct {
	client     client.Client
	timeout    time.Duration
	newDecoder func() scan.Decoder
	loopOpts   []scan.Option
	log        logging.Logger
}

func NewStudentService(c client.Client, scanTimeout time.Duration, log logging.Logger) StudentService {
	return &studentService{
		client:     c,
		timeout:    scanTimeout,
		newDecoder: func() scan.Decoder { return scan.NewQRDecoder() },
		loopOpts:   []scan.Option{scan.WithLogger(log)},
		log:        log,
	}
}

// RecordAttendance accepts a session id or a scanned payload that names one.
func (s *studentService) RecordAttendance(ctx context.Context, payload string) (*models.RecordResult, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, invalid("sessionId", "session id is required")
	}
	sessionID, err := scan.ParsePayload(payload)
	if err != nil {
		return nil, invalid("sessionId", err.Error())
	}

	res, err := s.client.RecordAttendance(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}
	return res, nil
}

func (s *studentService) History(ctx context.Context) ([]models.AttendanceRecord, error) {
	hist, err := s.client.StudentHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return hist, nil
}

// Scan runs the capture loop on camera and records attendance for the first
// payload found. The loop submits at most once.
func (s *studentService) Scan(ctx context.Context, camera scan.Camera) (*ScanResult, error) {
	// the scan deadline bounds the search only; a payload found in time is
	// submitted under the caller's context
	submitCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		mu        sync.Mutex
		result    *ScanResult
		submitErr error
	)
	submit := func(_ context.Context, payload string) {
		res := &ScanResult{Payload: payload}
		rec, err := s.RecordAttendance(submitCtx, payload)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			submitErr = err
			return
		}
		res.SessionID, _ = scan.ParsePayload(payload)
		res.Record = rec
		result = res
	}

	loop := scan.NewLoop(camera, s.newDecoder(), submit, s.loopOpts...)
	if err := loop.Start(ctx); err != nil {
		return nil, err
	}

	if _, err := loop.Wait(ctx); err != nil {
		loop.Stop()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrScanTimeout, s.timeout)
		}
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if submitErr != nil {
		return nil, submitErr
	}
	return result, nil
}
