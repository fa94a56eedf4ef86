package stream

import (
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/command"
)

type replayOp int

const (
	replayNone replayOp = iota
	replayAppend
	replayReset
)

func replayOpFor(cmd command.Command) replayOp {
	switch c := cmd.(type) {
	case command.Subscribe, *command.Subscribe:
		return replayAppend
	case command.ClearSubscribe:
		if c.All {
			return replayReset
		}
		return replayAppend
	case *command.ClearSubscribe:
		if c != nil && c.All {
			return replayReset
		}
		return replayAppend
	}
	return replayNone
}

type sendRequest struct {
	data   []byte
	replay replayOp
	reply  chan error
}

func (c *Client) runWriter(half *WriteHalf) {
	defer close(c.writerDone)
	w := half
	var replay [][]byte

	for {
		select {
		case <-c.ctx.Done():
			if w != nil {
				_ = w.CloseGracefully()
			}
			return

		case nh := <-c.swaps:
			w = nh
			if !c.resubscribe {
				continue
			}
			for _, data := range replay {
				if err := w.WriteText(data); err != nil {
					log.Error(c.ctx, err, log.KV{K: "msg", V: "resubscribe failed"})
					break
				}
			}
			if len(replay) > 0 {
				log.Debugf(c.ctx, "replayed %d subscription frames", len(replay))
			}

		case req := <-c.sends:
			var err error
			if w == nil {
				err = census.New(census.KindTransport, "not connected")
			} else {
				err = w.WriteText(req.data)
			}
			if err == nil && c.resubscribe {
				switch req.replay {
				case replayAppend:
					replay = append(replay, req.data)
				case replayReset:
					replay = nil
				}
			}
			req.reply <- err
		}
	}
}
