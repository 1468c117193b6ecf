package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/luxfi/mempool/account"
	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/extrinsic"
	"github.com/luxfi/mempool/pool"
	"github.com/luxfi/mempool/ready"
	"github.com/luxfi/mempool/vtx"
)

var submitCommand = &cli.Command{
	Name:      "submit",
	Usage:     "submit a single extrinsic against the dev chain backend",
	ArgsUsage: "<call-hex>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "signed", Usage: "hex-encoded 20-byte direct account id", Required: true},
		&cli.Uint64Flag{Name: "nonce", Usage: "extrinsic nonce", Required: true},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("submit: expected exactly one <call-hex> argument")
		}
		call, err := hex.DecodeString(c.Args().First())
		if err != nil {
			return fmt.Errorf("submit: decoding call: %w", err)
		}
		signedBytes, err := hex.DecodeString(c.String("signed"))
		if err != nil || len(signedBytes) != account.IDLen {
			return fmt.Errorf("submit: --signed must be a %d-byte hex account id", account.IDLen)
		}
		var id account.ID
		copy(id[:], signedBytes)

		raw := extrinsic.Raw{
			Signed:    extrinsic.DirectAddress(id),
			Index:     account.Nonce(c.Uint64("nonce")),
			Call:      call,
			Signature: []byte{0x01}, // any non-empty signature marks this as signed
		}

		results := rt.pool.Submit(c.Context, rt.verif, rt.at, []extrinsic.Raw{raw})
		res := results[0]
		if res.Err != nil {
			if ai, ok := pool.AsAlreadyImported(res.Err); ok {
				fmt.Printf("already imported as %s\n", ai.Hash)
				return nil
			}
			return res.Err
		}
		fmt.Printf("admitted as %s\n", res.Hash)
		return nil
	},
}

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "print the pool's current occupancy",
	Action: func(c *cli.Context) error {
		st := rt.pool.Status()
		fmt.Printf("count=%d bytes=%d senders=%d unresolved=%d\n", st.Count, st.Bytes, st.Senders, st.Unresolved)
		return nil
	},
}

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "poll the pool's readiness sweep at a fixed interval, printing Ready hashes",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "interval", Value: 2 * time.Second, Usage: "sweep interval"},
		&cli.Int64Flag{Name: "iterations", Value: 0, Usage: "stop after N sweeps (0 = run forever)"},
		&cli.DurationFlag{Name: "retry-interval", Value: 0, Usage: "also re-verify unresolved-sender records at this interval (0 = disabled)"},
	},
	Action: func(c *cli.Context) error {
		interval := c.Duration("interval")
		limit := c.Int64("iterations")

		if retryInterval := c.Duration("retry-interval"); retryInterval > 0 {
			rt.pool.StartRetryLoop(c.Context, rt.verif, rt.api, func() chainapi.BlockID {
				return rt.at.Block()
			}, retryInterval)
			defer rt.pool.Close()
		}

		for i := int64(0); limit == 0 || i < limit; i++ {
			select {
			case <-c.Context.Done():
				return c.Context.Err()
			case <-time.After(interval):
			}

			ev := ready.New(c.Context, rt.at, rt.api)
			count := pool.CullAndGetPending(rt.pool, ev, func(ts []*vtx.Transaction) int {
				for _, t := range ts {
					fmt.Printf("ready: %s\n", t.Hash())
				}
				return len(ts)
			})
			if count == 0 {
				fmt.Println("ready: (none)")
			}
		}
		return nil
	},
}
