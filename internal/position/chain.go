// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package position

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// chain tries multiple providers in order and returns the first usable fix.
type chain struct {
	providers []Provider
}

// Chain combines providers into one, consulted in the given order. A provider
// that reports permission denial stops the chain, any other failure falls
// through to the next provider.
func Chain(providers ...Provider) Provider {
	if len(providers) == 1 {
		return providers[0]
	}
	return &chain{providers: providers}
}

func (c *chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *chain) Locate(ctx context.Context, opts LocateOptions) (Fix, error) {
	var lastErr error
	for _, p := range c.providers {
		fix, err := p.Locate(ctx, opts)
		if err == nil {
			return fix, nil
		}
		if errors.Is(err, ErrPermissionDenied) || ctx.Err() != nil {
			return Fix{}, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no positioning providers configured", ErrPositionUnavailable)
	}
	return Fix{}, lastErr
}
