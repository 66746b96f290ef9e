// gestaltctl 加载配置并输出合并后的结果，便于排查多 Source 的覆盖关系。
//
//	gestaltctl get db.port --file config/app.yaml --file config/prod.yaml --env-prefix APP_
//	gestaltctl keys --file config/app.yaml --set db.host=127.0.0.1
//	gestaltctl watch --file config/app.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
