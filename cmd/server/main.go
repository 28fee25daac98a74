package main

import "github.com/mrpremium/go-storefront-service/cmd/server/cmd"

func main() {
	cmd.Execute()
}
