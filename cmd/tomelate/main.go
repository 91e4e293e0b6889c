package main

import "github.com/joho/godotenv"

func main() {
	// A missing .env file is not an error; keys may come from the keychain.
	_ = godotenv.Load()
	execute()
}
