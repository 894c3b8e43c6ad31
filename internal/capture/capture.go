// Package capture implements an optional on-disk spool of delivered
// payloads. Every clean message is appended as a length-prefixed frame to
// a zstd-compressed file, one file per link, so a feed can be inspected
// or replayed after the fact without involving the broker.
package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DataDog/zstd"

	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/errors"
)

// Spool writes length-prefixed message frames through a zstd compressor
// into a spool file. It is safe for concurrent use, although TelTap
// appends from a single goroutine per link.
type Spool struct {
	path string

	mu   sync.Mutex
	file *os.File
	bw   *bufio.Writer
	zw   io.WriteCloser
}

// NewSpool creates the spool file for a link inside dir. The file name
// carries the link name and a timestamp so restarts never overwrite an
// earlier spool.
func NewSpool(dir, linkName string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create capture dir %s", dir)
	}

	name := fmt.Sprintf("%s-%s.spool.zst", linkName,
		time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create spool %s", path)
	}

	bw := bufio.NewWriterSize(file, constants.CaptureBufferSize)
	return &Spool{
		path: path,
		file: file,
		bw:   bw,
		zw:   zstd.NewWriterLevel(bw, zstd.DefaultCompression),
	}, nil
}

// Path returns the spool file path.
func (s *Spool) Path() string {
	return s.path
}

// Append writes one message frame: a 4-byte big-endian length followed by
// the payload bytes.
func (s *Spool) Append(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.zw == nil {
		return errors.ErrNotConnected
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := s.zw.Write(prefix[:]); err != nil {
		return errors.Wrap(err, "spool write")
	}
	if _, err := s.zw.Write(payload); err != nil {
		return errors.Wrap(err, "spool write")
	}
	return nil
}

// Close flushes the compressor and closes the spool file.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.zw == nil {
		return nil
	}
	err := s.zw.Close()
	s.zw = nil
	if flushErr := s.bw.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := s.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// ReadAll decompresses a spool file and returns its message frames in
// write order. Intended for replay tooling and tests.
func ReadAll(path string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open spool %s", path)
	}
	defer file.Close()

	zr := zstd.NewReader(file)
	defer zr.Close()

	var messages [][]byte
	var prefix [4]byte
	for {
		if _, err := io.ReadFull(zr, prefix[:]); err != nil {
			if err == io.EOF {
				return messages, nil
			}
			return nil, errors.Wrapf(err, "read spool %s", path)
		}
		payload := make([]byte, binary.BigEndian.Uint32(prefix[:]))
		if _, err := io.ReadFull(zr, payload); err != nil {
			return nil, errors.Wrapf(err, "read spool %s", path)
		}
		messages = append(messages, payload)
	}
}
