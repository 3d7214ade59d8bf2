// gqlboard はユーザーと投稿を扱うGraphQLサーバー。
//
// 使い方:
//
//	gqlboard [serve|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/gqlboard/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gqlboard: %v\n", err)
		os.Exit(1)
	}
}
