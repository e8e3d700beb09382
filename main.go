package main

import "github.com/frahmantamala/asset-portal/cmd"

func main() {
	cmd.Execute()
}
