package tracing

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// TracingIngress extracts the inbound trace context and opens a server span
// for the request. Spans are named by the registered route pattern so that
// project and submission ids in the path do not fan out the operation names.
func TracingIngress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tracer := opentracing.GlobalTracer()
		spanCtx, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(ctx.Request.Header))

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path
		}
		serverSpan := tracer.StartSpan(ctx.Request.Method+" "+route, ext.RPCServerOption(spanCtx))
		ext.HTTPMethod.Set(serverSpan, ctx.Request.Method)
		ext.HTTPUrl.Set(serverSpan, ctx.Request.RequestURI)

		ctx.Request = ctx.Request.WithContext(opentracing.ContextWithSpan(ctx.Request.Context(), serverSpan))

		ctx.Next()

		ext.HTTPStatusCode.Set(serverSpan, uint16(ctx.Writer.Status()))
		serverSpan.Finish()
	}
}
