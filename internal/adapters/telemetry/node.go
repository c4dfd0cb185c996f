package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/ports"
)

// SelectorNodeID is the unique identifier for the telemetry selector Graft node.
const SelectorNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[*Selector]{
		ID:        SelectorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Selector, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewSelector(log), nil
		},
	})
}
