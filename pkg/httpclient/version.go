package httpclient

// Version is the SDK version reported in the X-SDK-Version header.
const Version = "1.0.0"
