package main

import "github.com/nextlevelbuilder/topicbridge/cmd"

func main() {
	cmd.Execute()
}
