package automation

import (
	"context"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"
)

const scriptTimeout = 10 * time.Second

// HookRunner executes the optional post-decision script attached to an
// approval rule. Scripts are sandboxed tengo programs that receive the
// activity, module and request payload; failures are logged and never
// surfaced to the decision path.
type HookRunner struct {
	log *zap.Logger
}

func NewHookRunner(log *zap.Logger) *HookRunner {
	return &HookRunner{log: log}
}

func (r *HookRunner) Run(ctx context.Context, activity, module, script string, payload map[string]any) {
	if script == "" {
		return
	}

	s := tengo.NewScript([]byte(script))
	s.SetImports(stdlib.GetModuleMap("fmt", "text", "times", "math", "json"))

	_ = s.Add("activity", activity)
	_ = s.Add("module", module)
	_ = s.Add("payload", payload)

	compiled, err := s.Compile()
	if err != nil {
		r.log.Warn("hook script failed to compile",
			zap.String("activity", activity),
			zap.String("module", module),
			zap.Error(err))
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	if err := compiled.RunContext(runCtx); err != nil {
		r.log.Warn("hook script failed",
			zap.String("activity", activity),
			zap.String("module", module),
			zap.Error(err))
		return
	}

	r.log.Debug("hook script executed",
		zap.String("activity", activity),
		zap.String("module", module))
}
