package main

import "mailauth/internal/app"

// @title        mailauth API
// @version      1.0
// @description  Identity service: email-verified signup, OTP login, Google login.
// @BasePath     /
func main() {
	app.Run()
}
