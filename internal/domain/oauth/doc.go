/*
Package oauth implements GitHub sign-in.

The flow is the standard authorization code grant: the login route stores a
random state in StateCookie and redirects to AuthorizeURL; the callback
checks the returned state against the cookie, exchanges the code, fetches
the profile and stores it as a base64 JSON Session in SessionCookie.

Failures are *CallbackError values whose Code is sent back to the browser
as /?error=<code>.
*/
package oauth
