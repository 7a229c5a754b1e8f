package classroom

// SetJoinCodeGenerator swaps the join code generator and returns a func restoring the original one.
func SetJoinCodeGenerator(gen func() (string, error)) (restore func()) {
	orig := generateJoinCode
	generateJoinCode = gen
	return func() { generateJoinCode = orig }
}

const MaxJoinCodeAttempts = maxJoinCodeAttempts
