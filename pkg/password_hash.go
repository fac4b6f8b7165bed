package pkg

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost the seeded user hashes were generated with;
// changing it invalidates nothing, new hashes just get the new cost.
const bcryptCost = 14

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return BytesToString(hashBytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
