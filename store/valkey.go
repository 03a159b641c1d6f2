package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"clickshare/config"
)

// UploadTicketStore makes local upload URLs single use.
type UploadTicketStore interface {
	IssueTicket(ctx context.Context, storageID string, ttl time.Duration) error
	ConsumeTicket(ctx context.Context, storageID string) (bool, error)
	Close() error
}

var (
	dialContext    = (&net.Dialer{}).DialContext
	newBufioReader = bufio.NewReader
	newBufioWriter = bufio.NewWriter
)

// ValkeyStore speaks just enough RESP to keep upload tickets in Valkey.
type ValkeyStore struct {
	addr     string
	password string
	db       int
	prefix   string
	timeout  time.Duration
}

func NewValkeyStore(cfg config.ValkeyConfig) (*ValkeyStore, error) {
	store := &ValkeyStore{
		addr:     cfg.Addr,
		password: cfg.Password,
		db:       cfg.DB,
		prefix:   cfg.Prefix,
		timeout:  5 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.do(ctx, "PING"); err != nil {
		return nil, fmt.Errorf("valkey ping failed: %w", err)
	}

	return store, nil
}

func (v *ValkeyStore) IssueTicket(ctx context.Context, storageID string, ttl time.Duration) error {
	seconds := int64(ttl.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	_, err := v.do(ctx, "SET", v.key(storageID), "1", "EX", strconv.FormatInt(seconds, 10), "NX")
	return err
}

// ConsumeTicket reports whether the ticket existed and removes it in the same
// round trip, so two concurrent uploads cannot both succeed.
func (v *ValkeyStore) ConsumeTicket(ctx context.Context, storageID string) (bool, error) {
	response, err := v.do(ctx, "GETDEL", v.key(storageID))
	if err != nil {
		return false, err
	}
	return response != "", nil
}

func (v *ValkeyStore) Close() error {
	return nil
}

func (v *ValkeyStore) key(storageID string) string {
	return fmt.Sprintf("%s:%s", v.prefix, storageID)
}

func (v *ValkeyStore) do(ctx context.Context, args ...string) (string, error) {
	conn, err := dialContext(ctx, "tcp", v.addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(v.timeout))
	}

	reader := newBufioReader(conn)
	writer := newBufioWriter(conn)

	if v.password != "" {
		if err := roundTrip(reader, writer, "AUTH", v.password); err != nil {
			return "", err
		}
	}

	if v.db > 0 {
		if err := roundTrip(reader, writer, "SELECT", strconv.Itoa(v.db)); err != nil {
			return "", err
		}
	}

	if err := writeCommand(writer, args...); err != nil {
		return "", err
	}
	if err := writer.Flush(); err != nil {
		return "", err
	}
	return readResponse(reader)
}

func roundTrip(reader *bufio.Reader, writer *bufio.Writer, args ...string) error {
	if err := writeCommand(writer, args...); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	_, err := readResponse(reader)
	return err
}

func writeCommand(writer *bufio.Writer, args ...string) error {
	if _, err := writer.WriteString(fmt.Sprintf("*%d\r\n", len(args))); err != nil {
		return err
	}
	for _, arg := range args {
		if _, err := writer.WriteString(fmt.Sprintf("$%d\r\n%s\r\n", len(arg), arg)); err != nil {
			return err
		}
	}
	return nil
}

func readResponse(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty response")
	}

	switch line[0] {
	case '+':
		return line[1:], nil
	case '-':
		return "", fmt.Errorf("valkey error: %s", line[1:])
	case ':':
		return line[1:], nil
	case '$':
		length, err := strconv.Atoi(line[1:])
		if err != nil {
			return "", fmt.Errorf("invalid bulk length: %w", err)
		}
		if length == -1 {
			return "", nil
		}
		buffer := make([]byte, length+2)
		if _, err := io.ReadFull(reader, buffer); err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(buffer), "\r\n"), nil
	default:
		return "", fmt.Errorf("unexpected response: %s", line)
	}
}
