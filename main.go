package main

import (
	_ "github.com/lib/pq"

	"github.com/lockplane/lockplane/cmd"
)

func main() {
	cmd.Execute()
}
