/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/flockshop/wishlist-api/cmd"

func main() {
	cmd.Execute()
}
