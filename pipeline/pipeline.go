package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pkg/logging"
	"github.com/rushteam/itemcf/pkg/metrics"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：Recall → Filter → Rank → ReRank。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各个 Node，任一 Node 出错即中止。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		elapsed := time.Since(start)
		metrics.RecordNode(node.Name(), string(node.Kind()), elapsed, err)
		if err != nil {
			log.Warn().Err(err).Str("node", node.Name()).Msg("pipeline node failed")
			return nil, core.WrapDomainError(errPipelineNode, fmt.Errorf("%s: %w", node.Name(), err))
		}
		log.Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("elapsed", elapsed).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}

var errPipelineNode = core.NewDomainError(core.ModulePipeline, core.ErrorCodeInternalError, "pipeline: node failed")
