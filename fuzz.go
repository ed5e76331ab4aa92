package edge

func Fuzz(fuzz []byte) int {
	var _, err = NewBundle().
		AddTemplateString("fuzz", string(fuzz)).
		Compile()

	if err != nil {
		return 0
	}
	return 1
}
