package app

// Region represents a target AWS region for client creation.
type Region interface {
	// resolve returns the AWS region string using the environment.
	resolve(env Environment) string
}

// localRegion uses the AWS_REGION environment variable.
type localRegion struct{}

// resolve returns the AWS_REGION from the parsed environment.
func (localRegion) resolve(env Environment) string {
	return env.awsRegion()
}

// LocalRegion returns a Region that uses AWS_REGION.
func LocalRegion() Region {
	return localRegion{}
}

// secretsRegion uses BSERVE_SECRETS_REGION and falls back to AWS_REGION.
type secretsRegion struct{}

func (secretsRegion) resolve(env Environment) string {
	if r := env.secretsRegion(); r != "" {
		return r
	}
	return env.awsRegion()
}

// SecretsRegion returns a Region for the clients that read secrets, for deployments that keep
// their secrets in a single region.
func SecretsRegion() Region {
	return secretsRegion{}
}

// fixedRegion uses a hardcoded region string.
type fixedRegion string

// resolve returns the fixed region string.
func (r fixedRegion) resolve(_ Environment) string {
	return string(r)
}

// FixedRegion returns a Region that uses a specific region string.
func FixedRegion(region string) Region {
	return fixedRegion(region)
}
