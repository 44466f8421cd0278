package password

// commonPasswords is the built-in blacklist used when Policy.CheckCommon is
// set and no Blacklist is supplied.
var commonPasswords = []string{
	"password",
	"password1",
	"password123",
	"123456",
	"12345678",
	"123456789",
	"1234567890",
	"qwerty",
	"qwerty123",
	"abc123",
	"111111",
	"123123",
	"letmein",
	"welcome",
	"welcome1",
	"admin",
	"admin123",
	"administrator",
	"monkey",
	"dragon",
	"football",
	"baseball",
	"iloveyou",
	"sunshine",
	"princess",
	"trustno1",
	"master",
	"login",
	"passw0rd",
	"p@ssw0rd",
	"p@ssword1",
	"changeme",
	"school",
	"school123",
	"teacher",
	"teacher1",
	"student",
	"student1",
	"Password1!",
	"Welcome1!",
}
