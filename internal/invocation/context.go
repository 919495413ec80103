package invocation

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Context describes the platform invocation being served.
type Context struct {
	RequestID       string
	FunctionName    string
	FunctionVersion string
	MemoryLimitMB   int
	Deadline        time.Time
}

// RemainingTime is zero when the invocation carries no deadline.
func (c Context) RemainingTime() time.Duration {
	if c.Deadline.IsZero() {
		return 0
	}
	if d := time.Until(c.Deadline); d > 0 {
		return d
	}
	return 0
}

// ContextFrom reads the invocation metadata the Lambda runtime attaches to ctx
// and the process environment.
func ContextFrom(ctx context.Context) Context {
	ic := Context{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		MemoryLimitMB:   lambdacontext.MemoryLimitInMB,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ic.RequestID = lc.AwsRequestID
	}
	if deadline, ok := ctx.Deadline(); ok {
		ic.Deadline = deadline
	}
	return ic
}
