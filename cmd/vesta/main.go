package main

import (
	_ "github.com/xff16/vesta/builtin/controllers/status"
	_ "github.com/xff16/vesta/builtin/middlewares/auth"
	_ "github.com/xff16/vesta/builtin/middlewares/compressor"
	_ "github.com/xff16/vesta/builtin/middlewares/logger"
	_ "github.com/xff16/vesta/builtin/middlewares/ratelimit"
	_ "github.com/xff16/vesta/builtin/middlewares/recoverer"
)

func main() {
	Execute()
}
