package pipeline

import "context"

func send(ctx context.Context, ch chan<- []Record, batch []Record) error {
	select {
	case ch <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
