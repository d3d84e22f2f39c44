package peer

import "github.com/pion/randutil"

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var randomGenerator = randutil.NewMathRandomGenerator()

// randomMessage returns n random alphabetic characters.
func randomMessage(n int) string {
	return randomGenerator.GenerateString(n, alphabet)
}
