package utils

// Ternary devuelve ifTrue si condition se cumple y si no ifFalse. Se usa para
// elegir la dirección de orden en los renderers de SQL y Mongo.
func Ternary[T any](condition bool, ifTrue, ifFalse T) T {
	if condition {
		return ifTrue
	}
	return ifFalse
}
